package facematch

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW parameters sized for small galleries of 128-dim face embeddings.
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 100

	// HNSWCandidates is how many approximate neighbors are re-scored exactly.
	HNSWCandidates = 10
)

// HNSWIndex keeps an approximate nearest-neighbor graph of enrolled embeddings.
// It is fed by the identity store on every successful registration.
type HNSWIndex struct {
	graph *hnsw.Graph[string]
	mu    sync.RWMutex
}

// NewHNSWIndex creates an empty index using Euclidean distance.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{graph: newGraph()}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Upsert inserts or replaces the vector stored under id.
func (h *HNSWIndex) Upsert(id string, embedding []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.graph.Lookup(id); ok {
		// Deleting the last node leaves the graph without layers and a
		// following Add dereferences nil, so start over instead.
		if h.graph.Len() == 1 {
			h.graph = newGraph()
		} else {
			h.graph.Delete(id)
		}
	}
	h.graph.Add(hnsw.MakeNode(id, toFloat32(embedding)))
}

// Search returns the ids of up to k approximate nearest neighbors.
func (h *HNSWIndex) Search(query []float64, k int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph.Len() == 0 {
		return nil
	}
	nodes := h.graph.Search(toFloat32(query), k)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Key
	}
	return ids
}

// Len returns the number of indexed vectors.
func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph.Len()
}

// IndexedMatcher narrows the search with an HNSW index and re-scores the
// candidates exactly against the gallery, so the accept rule is the same as
// for Match. The index is searched inside the gallery's view, so no
// registration completes during a match. It falls back to a full scan while
// the index lags the gallery.
type IndexedMatcher struct {
	gallery ViewGallery
	index   *HNSWIndex
	k       int
}

// NewIndexedMatcher creates a matcher over gallery backed by index.
func NewIndexedMatcher(gallery ViewGallery, index *HNSWIndex) *IndexedMatcher {
	return &IndexedMatcher{gallery: gallery, index: index, k: HNSWCandidates}
}

// Match implements Matcher.
func (m *IndexedMatcher) Match(query []float64, tolerance float64) (MatchResult, error) {
	var res MatchResult
	var err error
	m.gallery.View(func(v GalleryView) {
		res, err = m.matchView(query, v, tolerance)
	})
	return res, err
}

func (m *IndexedMatcher) matchView(query []float64, v GalleryView, tolerance float64) (MatchResult, error) {
	if v.Len() == 0 {
		return MatchResult{}, nil
	}
	if len(query) != v.Dim() {
		return MatchResult{}, fmt.Errorf("%w: query has %d components, gallery expects %d",
			ErrDimensionMismatch, len(query), v.Dim())
	}
	if m.index.Len() < v.Len() {
		return Match(query, v, tolerance)
	}

	var best Candidate
	bestDistance, bestPos := 0.0, 0
	found := false
	for _, id := range m.index.Search(query, m.k) {
		c, pos, ok := v.Position(id)
		if !ok {
			continue
		}
		d := EuclideanDistance(query, c.Embedding)
		// Equal distances go to the entry that comes first in scan order.
		if !found || d < bestDistance || (d == bestDistance && pos < bestPos) {
			best, bestDistance, bestPos, found = c, d, pos, true
		}
	}

	return accept(best, bestDistance, found, tolerance), nil
}
