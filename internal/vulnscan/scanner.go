package vulnscan

import (
	"context"

	"github.com/kvesta/vulngate/internal/report"
	"github.com/kvesta/vulngate/pkg/coordinate"
	"github.com/kvesta/vulngate/pkg/depgraph"
	"github.com/kvesta/vulngate/pkg/vulnlib"
)

// VulnDB resolves package reports. *vulnlib.Client implements it.
type VulnDB interface {
	report.LinkResolver

	Lookup(ctx context.Context, coords []coordinate.Coordinate) (*vulnlib.ReportSet, error)
	Cached(coords []coordinate.Coordinate) *vulnlib.ReportSet
}

// Rule decides how a module is checked.
type Rule struct {
	// Transitive checks every descendant instead of direct dependencies only.
	Transitive bool
	// Filter drops artifacts, and their subtrees, before the check.
	Filter *depgraph.Filter
	// Offline skips the check with a warning.
	Offline bool
	// BestEffort evaluates cached reports when the lookup fails instead of
	// failing the module.
	BestEffort bool
}

type Scanner struct {
	Rule   Rule
	VulnDB VulnDB
}
