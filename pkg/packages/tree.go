package packages

import (
	"fmt"
	"io"

	"github.com/kvesta/vulngate/pkg/depgraph"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseTree decodes a dependency tree document. JSON is accepted as well
// as YAML. Every node needs an artifactId and a version.
func ParseTree(r io.Reader) (*depgraph.Node, error) {
	root := &depgraph.Node{}

	if err := yaml.NewDecoder(r).Decode(root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dependency tree")
		}
		return nil, errors.Wrap(err, "decode dependency tree")
	}

	if err := validateTree(root); err != nil {
		return nil, err
	}

	return root, nil
}

func validateTree(root *depgraph.Node) error {
	type entry struct {
		node *depgraph.Node
		path string
	}

	work := []entry{{node: root, path: "root"}}
	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]

		if e.node == nil {
			return errors.Errorf("%s: empty node", e.path)
		}
		if e.node.Artifact.ArtifactID == "" {
			return errors.Errorf("%s: artifactId is required", e.path)
		}
		if e.node.Artifact.Version == "" {
			return errors.Errorf("%s: version of %s is required", e.path, e.node.Artifact.ArtifactID)
		}

		for i, child := range e.node.Children {
			work = append(work, entry{node: child, path: fmt.Sprintf("%s.children[%d]", e.path, i)})
		}
	}

	return nil
}
