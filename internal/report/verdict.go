package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kvesta/vulngate/pkg/coordinate"
	"github.com/kvesta/vulngate/pkg/depgraph"
	"github.com/kvesta/vulngate/pkg/vulnlib"
)

// LinkResolver derives the reference URLs printed in a report.
type LinkResolver interface {
	PackageURL(r *vulnlib.PackageReport) string
	ReferenceURL(v *vulnlib.Vulnerability) string
}

// Verdict is the outcome of checking one module.
type Verdict struct {
	Module string `json:"module,omitempty"`
	Passed bool   `json:"passed"`

	// Inconclusive is set when some dependencies could not be checked.
	Inconclusive bool     `json:"inconclusive,omitempty"`
	Unchecked    []string `json:"unchecked,omitempty"`
	// Skipped is set when the check did not run at all.
	Skipped bool `json:"skipped,omitempty"`

	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings,omitempty"`

	// Report is the rendered failure text, empty on pass.
	Report string `json:"report,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Finding is a vulnerable dependency.
type Finding struct {
	Artifact   string  `json:"artifact"`
	Coordinate string  `json:"coordinate"`
	PackageURL string  `json:"packageUrl"`
	Issues     []Issue `json:"issues"`
}

type Issue struct {
	Title     string `json:"title"`
	CVE       string `json:"cve,omitempty"`
	Reference string `json:"reference"`
}

// Pass returns a passing verdict over checked dependencies.
func Pass(checked int) *Verdict {
	return &Verdict{Passed: true, Checked: checked, Timestamp: time.Now()}
}

// Evaluate fails when any report lists a vulnerability. Findings keep the
// iteration order of reports. Artifacts are described by their originating
// artifact, or by the coordinate when no origin is known.
func Evaluate(reports *vulnlib.ReportSet, origins map[coordinate.Coordinate]depgraph.Artifact, links LinkResolver) *Verdict {
	v := Pass(reports.Len())

	for c, r := range reports.All() {
		if !r.Vulnerable() {
			continue
		}

		f := Finding{
			Artifact:   c.String(),
			Coordinate: c.String(),
			PackageURL: links.PackageURL(r),
		}
		if origin, ok := origins[c]; ok {
			f.Artifact = origin.String()
		}

		for i := range r.Vulnerabilities {
			vuln := &r.Vulnerabilities[i]

			issue := Issue{
				Title:     vuln.Title,
				Reference: links.ReferenceURL(vuln),
			}
			if vuln.CVE != nil {
				issue.CVE = *vuln.CVE
			}
			f.Issues = append(f.Issues, issue)
		}

		v.Findings = append(v.Findings, f)
	}

	if len(v.Findings) > 0 {
		v.Passed = false
		v.Report = Render(v.Findings)
	}

	return v
}

// Render formats findings as
//
//	Detected <n> vulnerable dependencies:
//	  <artifact>; <package url>
//	    * <title>; <reference url>
func Render(findings []Finding) string {
	buff := &strings.Builder{}

	fmt.Fprintf(buff, "Detected %d vulnerable dependencies:\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(buff, "  %s; %s\n", f.Artifact, f.PackageURL)
		for _, issue := range f.Issues {
			fmt.Fprintf(buff, "    * %s; %s\n", issue.Title, issue.Reference)
		}
	}

	return buff.String()
}

// Err renders a failed verdict as an error, nil when passed.
func (v *Verdict) Err() error {
	if v == nil || v.Passed {
		return nil
	}
	if v.Module != "" {
		return fmt.Errorf("%s: %s", v.Module, strings.TrimRight(v.Report, "\n"))
	}
	return fmt.Errorf("%s", strings.TrimRight(v.Report, "\n"))
}
