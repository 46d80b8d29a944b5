package vulnlib

import (
	"github.com/kvesta/vulngate/pkg/coordinate"
)

// Correlate pairs the i-th report with the i-th requested coordinate.
// Only the lengths are checked: the service is trusted to answer in request
// order, so a reordered response attaches reports to the wrong coordinates.
func Correlate(requests []coordinate.Coordinate, reports []*PackageReport) (*ReportSet, error) {
	if len(requests) != len(reports) {
		return nil, &SizeMismatchError{Expected: len(requests), Actual: len(reports)}
	}

	result := NewReportSet()
	for i, c := range requests {
		result.Put(c, reports[i])
	}
	return result, nil
}
