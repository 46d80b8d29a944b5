package depgraph

import (
	"fmt"
	"path"
	"strings"

	version2 "github.com/hashicorp/go-version"
	"github.com/samber/lo"
)

// Filter selects artifacts by groupId[:artifactId[:type[:version[:scope]]]]
// patterns. Segments accept `*` wildcards; a version segment starting with a
// comparison operator is read as a version constraint such as ">= 1.0, < 2.0".
// Excludes win over includes, and an empty include list includes everything.
type Filter struct {
	includes []pattern
	excludes []pattern
}

type pattern struct {
	raw        string
	segments   []string
	constraint version2.Constraints
}

const (
	segGroup = iota
	segArtifact
	segType
	segVersion
	segScope
	segCount
)

// NewFilter compiles include and exclude patterns.
func NewFilter(includes, excludes []string) (*Filter, error) {
	f := &Filter{}

	for _, raw := range includes {
		p, err := compile(raw)
		if err != nil {
			return nil, err
		}
		f.includes = append(f.includes, p)
	}

	for _, raw := range excludes {
		p, err := compile(raw)
		if err != nil {
			return nil, err
		}
		f.excludes = append(f.excludes, p)
	}

	return f, nil
}

func compile(raw string) (pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pattern{}, fmt.Errorf("empty artifact pattern")
	}

	segments := strings.Split(raw, ":")
	if len(segments) > segCount {
		return pattern{}, fmt.Errorf("artifact pattern %q has more than %d segments", raw, segCount)
	}

	p := pattern{raw: raw, segments: segments}

	for _, s := range segments {
		if _, err := path.Match(s, ""); err != nil {
			return pattern{}, fmt.Errorf("artifact pattern %q: %v", raw, err)
		}
	}

	if len(segments) > segVersion && isConstraint(segments[segVersion]) {
		c, err := version2.NewConstraint(segments[segVersion])
		if err != nil {
			return pattern{}, fmt.Errorf("artifact pattern %q: %v", raw, err)
		}
		p.constraint = c
	}

	return p, nil
}

func isConstraint(s string) bool {
	return s != "" && strings.ContainsRune("<>=!~", rune(s[0]))
}

// Include reports whether the artifact passes the filter. A nil filter
// includes every artifact.
func (f *Filter) Include(a Artifact) bool {
	if f == nil {
		return true
	}

	if lo.SomeBy(f.excludes, func(p pattern) bool { return p.match(a) }) {
		return false
	}

	if len(f.includes) == 0 {
		return true
	}
	return lo.SomeBy(f.includes, func(p pattern) bool { return p.match(a) })
}

func (p pattern) match(a Artifact) bool {
	typ := a.Type
	if typ == "" {
		typ = "jar"
	}
	fields := [segCount]string{a.GroupID, a.ArtifactID, typ, a.Version, a.Scope}

	for i, seg := range p.segments {
		if i == segVersion && p.constraint != nil {
			v, err := version2.NewVersion(a.Version)
			if err != nil || !p.constraint.Check(v) {
				return false
			}
			continue
		}

		if ok, _ := path.Match(seg, fields[i]); !ok {
			return false
		}
	}
	return true
}

func (p pattern) String() string {
	return p.raw
}
