package packages

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/kvesta/vulngate/pkg/depgraph"

	"github.com/pkg/errors"
)

var (
	logLevelReg = regexp.MustCompile(`^\[(INFO|WARNING|ERROR|DEBUG)\] ?`)
	// each level of nesting is drawn with three characters, the last one
	// ends in `+- ` or `\- `
	branchReg = regexp.MustCompile(`^((?:\|  |   )*)[+\\]- (\S+)`)
	rootReg   = regexp.MustCompile(`^([^\s:|+\\-][^\s:]*(?::[^\s:]+){3,4})$`)
)

// ParseMavenTree reads the output of `mvn dependency:tree`. The `[INFO] `
// prefix of the maven log is optional; every other line is ignored. A
// multi-module build yields one root per module.
func ParseMavenTree(r io.Reader) ([]*depgraph.Node, error) {
	roots := []*depgraph.Node{}

	// stack[d] is the last node seen at depth d of the current root
	stack := []*depgraph.Node{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++

		line := strings.TrimRight(sc.Text(), " \t\r")
		if m := logLevelReg.FindStringSubmatch(line); m != nil {
			if m[1] != "INFO" {
				continue
			}
			line = line[len(m[0]):]
		}

		if m := branchReg.FindStringSubmatch(line); m != nil {
			// -Dverbose marks omitted dependencies as (g:a:t:v:s - omitted for ...)
			if strings.HasPrefix(m[2], "(") {
				continue
			}
			depth := len(m[1])/3 + 1

			artifact, ok := parseMavenArtifact(m[2], true)
			if !ok {
				continue
			}
			if depth > len(stack) {
				return nil, errors.Errorf("line %d: %s has no parent", lineNo, m[2])
			}

			node := &depgraph.Node{Artifact: artifact}
			parent := stack[depth-1]
			parent.Children = append(parent.Children, node)

			stack = append(stack[:depth], node)
			continue
		}

		if m := rootReg.FindStringSubmatch(line); m != nil {
			artifact, ok := parseMavenArtifact(m[1], false)
			if !ok {
				continue
			}

			root := &depgraph.Node{Artifact: artifact}
			roots = append(roots, root)
			stack = append(stack[:0], root)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read dependency tree")
	}

	if len(roots) == 0 {
		return nil, errors.New("no dependency tree found")
	}

	return roots, nil
}

// parseMavenArtifact splits groupId:artifactId:type[:classifier]:version and,
// for dependencies, the trailing scope.
func parseMavenArtifact(s string, scoped bool) (depgraph.Artifact, bool) {
	parts := strings.Split(s, ":")
	for _, p := range parts {
		if p == "" {
			return depgraph.Artifact{}, false
		}
	}

	a := depgraph.Artifact{}
	if scoped {
		if len(parts) < 5 || len(parts) > 6 {
			return a, false
		}
		a.Scope = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	switch len(parts) {
	case 4:
		a.GroupID, a.ArtifactID, a.Type, a.Version = parts[0], parts[1], parts[2], parts[3]
	case 5:
		a.GroupID, a.ArtifactID, a.Type, a.Classifier, a.Version = parts[0], parts[1], parts[2], parts[3], parts[4]
	default:
		return a, false
	}

	return a, true
}
