package facematch

import (
	"fmt"
	"sort"
)

// Match scans every entry of the gallery and returns the nearest identity when
// its Euclidean distance is strictly below tolerance. An empty gallery is
// always unmatched, whatever the query. Among exact ties the first entry in
// scan order wins.
func Match(query []float64, gallery Gallery, tolerance float64) (MatchResult, error) {
	if gallery.Len() == 0 {
		return MatchResult{}, nil
	}
	if len(query) != gallery.Dim() {
		return MatchResult{}, fmt.Errorf("%w: query has %d components, gallery expects %d",
			ErrDimensionMismatch, len(query), gallery.Dim())
	}

	var best Candidate
	bestDistance := 0.0
	found := false
	gallery.Scan(func(c Candidate) bool {
		d := EuclideanDistance(query, c.Embedding)
		if !found || d < bestDistance {
			best, bestDistance, found = c, d, true
		}
		return true
	})

	return accept(best, bestDistance, found, tolerance), nil
}

// accept applies the tolerance gate. Rejected candidates are not exposed.
func accept(c Candidate, distance float64, found bool, tolerance float64) MatchResult {
	if !found || !(distance < tolerance) {
		return MatchResult{}
	}
	return MatchResult{
		Matched:    true,
		ID:         c.ID,
		Name:       c.Name,
		Confidence: 1 - distance,
		Distance:   distance,
	}
}

// LinearMatcher matches by full scan of a gallery.
type LinearMatcher struct {
	gallery Gallery
}

// NewLinearMatcher creates a matcher scanning the given gallery.
func NewLinearMatcher(gallery Gallery) *LinearMatcher {
	return &LinearMatcher{gallery: gallery}
}

// Match implements Matcher.
func (m *LinearMatcher) Match(query []float64, tolerance float64) (MatchResult, error) {
	return Match(query, m.gallery, tolerance)
}

// Nearest lists up to k entries ordered by ascending distance. It ignores
// tolerance and is meant for tuning, not for attendance decisions.
func Nearest(query []float64, gallery Gallery, k int) ([]Neighbor, error) {
	if gallery.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != gallery.Dim() {
		return nil, fmt.Errorf("%w: query has %d components, gallery expects %d",
			ErrDimensionMismatch, len(query), gallery.Dim())
	}

	var all []Neighbor
	gallery.Scan(func(c Candidate) bool {
		all = append(all, Neighbor{ID: c.ID, Name: c.Name, Distance: EuclideanDistance(query, c.Embedding)})
		return true
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })

	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}
