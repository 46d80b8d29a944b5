package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kvesta/vulngate/config"

	"github.com/olekukonko/tablewriter"
)

// maxTitle limits the length of a vulnerability title in the table
const maxTitle = 80

// ResolveVerdicts prints the result of every checked module
func ResolveVerdicts(w io.Writer, verdicts []*Verdict) {
	failed, vulnerable := 0, 0
	for _, v := range verdicts {
		if !v.Passed {
			failed += 1
		}
		vulnerable += len(v.Findings)
	}

	fmt.Fprintf(w, "\nChecked %s modules | Failed: %s Vulnerable dependencies: %s\n",
		config.Yellow(len(verdicts)),
		config.Red(failed),
		config.Pink(vulnerable))

	for _, v := range verdicts {
		ResolveVerdict(w, v)
	}
}

// ResolveVerdict prints the result of one module
func ResolveVerdict(w io.Writer, v *Verdict) {
	status := config.Green("PASSED")
	switch {
	case v.Skipped:
		status = config.Yellow("SKIPPED")
	case !v.Passed:
		status = config.Red("FAILED")
	case v.Inconclusive:
		status = config.Yellow("INCONCLUSIVE")
	}

	fmt.Fprintf(w, "\n%s: %s | Checked: %s Vulnerable: %s\n",
		v.Module, status,
		config.Yellow(v.Checked),
		config.Red(len(v.Findings)))

	if len(v.Findings) == 0 {
		return
	}

	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Artifact", "Title", "CVEID", "Reference"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{0, 1})

	for i, f := range v.Findings {
		for _, issue := range f.Issues {
			title := issue.Title
			if len(title) > maxTitle {
				title = title[:maxTitle] + " ..."
			}

			table.Append([]string{
				strconv.Itoa(i + 1),
				fmt.Sprintf("%s\n%s", f.Artifact, f.PackageURL),
				title, issue.CVE, issue.Reference,
			})
		}
	}

	table.Render()
}
