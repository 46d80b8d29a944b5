package vulnlib

import "fmt"

// Links derives human facing reference URLs from the service base URL.
type Links struct {
	BaseURL string
}

// PackageURL points at the package page of a report.
func (l Links) PackageURL(r *PackageReport) string {
	return fmt.Sprintf("%s/resource/package/%d", l.BaseURL, r.ID)
}

// ReferenceURL points at the CVE page for CVE indexed vulnerabilities and at
// the generic vulnerability page otherwise.
func (l Links) ReferenceURL(v *Vulnerability) string {
	kind := "vulnerability"
	if v.CVE != nil {
		kind = "cve"
	}
	return fmt.Sprintf("%s/resource/%s/%d", l.BaseURL, kind, v.ID)
}
