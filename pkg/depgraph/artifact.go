package depgraph

import (
	"strings"

	"github.com/kvesta/vulngate/pkg/coordinate"
)

// Artifact is a resolved build artifact as a dependency graph provider reports it.
type Artifact struct {
	GroupID    string `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Classifier string `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Version    string `json:"version" yaml:"version"`
	Scope      string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Coordinate maps the artifact to a maven package coordinate.
// Artifacts without a group id, such as libraries only known by their
// file name, produce a coordinate without a group.
func (a Artifact) Coordinate() coordinate.Coordinate {
	if a.GroupID == "" {
		return coordinate.NewWithoutGroup(coordinate.Maven, a.ArtifactID, a.Version)
	}
	return coordinate.New(coordinate.Maven, a.GroupID, a.ArtifactID, a.Version)
}

// String renders groupId:artifactId:type[:classifier]:version[:scope].
func (a Artifact) String() string {
	parts := make([]string, 0, 6)
	if a.GroupID != "" {
		parts = append(parts, a.GroupID)
	}
	parts = append(parts, a.ArtifactID)

	typ := a.Type
	if typ == "" {
		typ = "jar"
	}
	parts = append(parts, typ)

	if a.Classifier != "" {
		parts = append(parts, a.Classifier)
	}
	parts = append(parts, a.Version)

	if a.Scope != "" {
		parts = append(parts, a.Scope)
	}
	return strings.Join(parts, ":")
}
