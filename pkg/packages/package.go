package packages

import (
	"github.com/kvesta/vulngate/pkg/depgraph"
)

// Kind names a dependency graph input format.
type Kind string

const (
	// KindTree is a YAML or JSON document of nested {artifact, children}.
	KindTree Kind = "tree"
	// KindMaven is the text output of `mvn dependency:tree`.
	KindMaven Kind = "maven"
	// KindJar is a JAR, WAR or EAR archive.
	KindJar Kind = "jar"
)

// Module is one resolved dependency tree, rooted at the project artifact.
type Module struct {
	// Source is the input the module was read from.
	Source string         `json:"source"`
	Root   *depgraph.Node `json:"root"`
}

// Name identifies the module in logs and reports.
func (m *Module) Name() string {
	if m.Root != nil && m.Root.Artifact.ArtifactID != "" {
		return m.Root.Artifact.String()
	}
	return m.Source
}
