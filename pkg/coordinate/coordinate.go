package coordinate

import (
	"fmt"
	"strings"
)

// Maven is the ecosystem of every coordinate extracted from a Maven artifact.
const Maven = "maven"

// Coordinate identifies one package version in an ecosystem.
// It is comparable, so it can be used directly as a map key. A coordinate
// without a group differs from one whose group is the empty string.
type Coordinate struct {
	ecosystem string
	group     string
	hasGroup  bool
	name      string
	version   string
}

// New returns a coordinate carrying a group.
func New(ecosystem, group, name, version string) Coordinate {
	return Coordinate{
		ecosystem: ecosystem,
		group:     group,
		hasGroup:  true,
		name:      name,
		version:   version,
	}
}

// NewWithoutGroup returns a coordinate for ecosystems that have no group concept.
func NewWithoutGroup(ecosystem, name, version string) Coordinate {
	return Coordinate{
		ecosystem: ecosystem,
		name:      name,
		version:   version,
	}
}

func (c Coordinate) Ecosystem() string { return c.ecosystem }

// Group returns the group and whether one is present.
func (c Coordinate) Group() (string, bool) { return c.group, c.hasGroup }

func (c Coordinate) Name() string { return c.name }

func (c Coordinate) Version() string { return c.version }

// String renders ecosystem:group:name:version, dropping the group when absent.
func (c Coordinate) String() string {
	parts := []string{c.ecosystem}
	if c.hasGroup {
		parts = append(parts, c.group)
	}
	parts = append(parts, c.name, c.version)
	return strings.Join(parts, ":")
}

// GoString makes absent and empty groups distinguishable in test output.
func (c Coordinate) GoString() string {
	if !c.hasGroup {
		return fmt.Sprintf("coordinate.NewWithoutGroup(%q, %q, %q)", c.ecosystem, c.name, c.version)
	}
	return fmt.Sprintf("coordinate.New(%q, %q, %q, %q)", c.ecosystem, c.group, c.name, c.version)
}
