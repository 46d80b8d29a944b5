package vulnlib

import (
	"iter"

	"github.com/kvesta/vulngate/pkg/coordinate"
)

// ReportSet maps coordinates to reports and remembers insertion order.
type ReportSet struct {
	order   []coordinate.Coordinate
	reports map[coordinate.Coordinate]*PackageReport
}

func NewReportSet() *ReportSet {
	return &ReportSet{
		reports: map[coordinate.Coordinate]*PackageReport{},
	}
}

// Put adds or replaces a report. A replaced report keeps its position.
func (s *ReportSet) Put(c coordinate.Coordinate, r *PackageReport) {
	if _, ok := s.reports[c]; !ok {
		s.order = append(s.order, c)
	}
	s.reports[c] = r
}

func (s *ReportSet) Get(c coordinate.Coordinate) (*PackageReport, bool) {
	if s == nil {
		return nil, false
	}
	r, ok := s.reports[c]
	return r, ok
}

func (s *ReportSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *ReportSet) Coordinates() []coordinate.Coordinate {
	if s == nil {
		return nil
	}
	return append([]coordinate.Coordinate(nil), s.order...)
}

// All iterates in insertion order.
func (s *ReportSet) All() iter.Seq2[coordinate.Coordinate, *PackageReport] {
	return func(yield func(coordinate.Coordinate, *PackageReport) bool) {
		if s == nil {
			return
		}
		for _, c := range s.order {
			if !yield(c, s.reports[c]) {
				return
			}
		}
	}
}

// Map returns an unordered copy.
func (s *ReportSet) Map() map[coordinate.Coordinate]*PackageReport {
	m := make(map[coordinate.Coordinate]*PackageReport, s.Len())
	for c, r := range s.All() {
		m[c] = r
	}
	return m
}
