// Package pointset holds the normalized input of the boundary pipeline:
// geocoded address points grouped by postal code.
package pointset

import (
	"fmt"
	"math"
	"sort"
)

// Point is a single geocoded address. Immutable once loaded.
type Point struct {
	Code     string
	Lon      float64
	Lat      float64
	SourceID string
}

// Group is the ordered set of points sharing one postal code.
type Group struct {
	Code   string
	Points []Point
}

// Set partitions address points by postal code. Every point belongs to
// exactly one group and empty groups are never constructed.
type Set struct {
	groups map[string]*Group
}

// InputError reports an unusable input record or group. In strict mode the
// caller aborts the run; otherwise the offending record is skipped.
type InputError struct {
	Code   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Code == "" {
		return "input: " + e.Reason
	}
	return fmt.Sprintf("input: code %s: %s", e.Code, e.Reason)
}

// New builds a Set from raw points, validating each record. Invalid records
// are returned as InputError values; the caller decides whether they are
// fatal (strict mode) or merely reported.
func New(points []Point) (*Set, []error) {
	s := &Set{groups: make(map[string]*Group)}
	var errs []error

	for _, p := range points {
		if p.Code == "" {
			errs = append(errs, &InputError{Reason: "empty postal code"})
			continue
		}
		if !finite(p.Lon) || !finite(p.Lat) {
			errs = append(errs, &InputError{Code: p.Code, Reason: "non-finite coordinate"})
			continue
		}
		if p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
			errs = append(errs, &InputError{Code: p.Code, Reason: fmt.Sprintf("coordinate out of range (%f, %f)", p.Lon, p.Lat)})
			continue
		}
		g, ok := s.groups[p.Code]
		if !ok {
			g = &Group{Code: p.Code}
			s.groups[p.Code] = g
		}
		g.Points = append(g.Points, p)
	}

	return s, errs
}

// Len returns the number of distinct codes.
func (s *Set) Len() int {
	return len(s.groups)
}

// TotalPoints returns the number of points across all groups.
func (s *Set) TotalPoints() int {
	var n int
	for _, g := range s.groups {
		n += len(g.Points)
	}
	return n
}

// Group returns the group for a code, or nil when the code is unknown.
func (s *Set) Group(code string) *Group {
	return s.groups[code]
}

// Groups returns all groups sorted by code ascending. The ordering makes
// downstream output reproducible run to run.
func (s *Set) Groups() []*Group {
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// AllPoints returns every point in the set, grouped order. The Voronoi
// strategy consumes this as its read-only global snapshot.
func (s *Set) AllPoints() []Point {
	out := make([]Point, 0, s.TotalPoints())
	for _, g := range s.Groups() {
		out = append(out, g.Points...)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
