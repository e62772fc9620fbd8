package facematch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceGallery is an in-order Gallery used by the tests.
type sliceGallery struct {
	dim   int
	items []Candidate
}

func (g *sliceGallery) Dim() int { return g.dim }
func (g *sliceGallery) Len() int { return len(g.items) }
func (g *sliceGallery) Scan(fn func(Candidate) bool) {
	for _, c := range g.items {
		if !fn(c) {
			return
		}
	}
}
func (g *sliceGallery) Position(id string) (Candidate, int, bool) {
	for i, c := range g.items {
		if c.ID == id {
			return c, i, true
		}
	}
	return Candidate{}, 0, false
}
func (g *sliceGallery) View(fn func(GalleryView)) { fn(g) }

func unit(dim, axis int, value float64) []float64 {
	v := make([]float64, dim)
	v[axis] = value
	return v
}

func TestEuclideanDistance(t *testing.T) {
	assert.Equal(t, 0.0, EuclideanDistance([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 5.0, EuclideanDistance([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.InDelta(t, math.Sqrt2, EuclideanDistance([]float64{1, 0}, []float64{0, 1}), 1e-12)
}

func TestValidateEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		v       []float64
		wantErr error
	}{
		{"ok", []float64{0.1, -0.2, 0.3}, nil},
		{"too short", []float64{0.1, 0.2}, ErrDimensionMismatch},
		{"too long", []float64{0.1, 0.2, 0.3, 0.4}, ErrDimensionMismatch},
		{"nil", nil, ErrDimensionMismatch},
		{"nan", []float64{0.1, math.NaN(), 0.3}, ErrNonFinite},
		{"inf", []float64{math.Inf(1), 0.2, 0.3}, ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbedding(tt.v, 3)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMatch_ExactQueryAlwaysMatches(t *testing.T) {
	e := []float64{0.3, -0.1, 0.7, 0.2}
	g := &sliceGallery{dim: 4, items: []Candidate{{ID: "1", Name: "Ana", Embedding: e}}}

	for _, tol := range []float64{1e-9, 0.01, 0.6, 5} {
		res, err := Match(e, g, tol)
		require.NoError(t, err)
		assert.True(t, res.Matched, "tolerance %v", tol)
		assert.Equal(t, "1", res.ID)
		assert.Equal(t, "Ana", res.Name)
		assert.Equal(t, 0.0, res.Distance)
		assert.Equal(t, 1.0, res.Confidence)
	}
}

func TestMatch_ToleranceIsStrict(t *testing.T) {
	g := &sliceGallery{dim: 2, items: []Candidate{{ID: "1", Name: "Ana", Embedding: []float64{0, 0}}}}

	// distance exactly 0.5
	res, err := Match([]float64{0.3, 0.4}, g, 0.5)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, res.ID, "rejected nearest identity must not be exposed")
	assert.Empty(t, res.Name)

	res, err = Match([]float64{0.3, 0.4}, g, 0.5000001)
	require.NoError(t, err)
	assert.True(t, res.Matched)
}

func TestMatch_EmptyGalleryNeverErrors(t *testing.T) {
	g := &sliceGallery{dim: 4}

	for _, q := range [][]float64{nil, {1}, {1, 2, 3, 4}, unit(128, 0, 1)} {
		res, err := Match(q, g, DefaultTolerance)
		require.NoError(t, err)
		assert.False(t, res.Matched)
	}
}

func TestMatch_DimensionMismatch(t *testing.T) {
	g := &sliceGallery{dim: 4, items: []Candidate{{ID: "1", Name: "Ana", Embedding: []float64{1, 0, 0, 0}}}}

	for _, q := range [][]float64{{1, 0, 0}, {1, 0, 0, 0, 0}, nil} {
		_, err := Match(q, g, DefaultTolerance)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	}
}

func TestMatch_PicksNearest(t *testing.T) {
	g := &sliceGallery{dim: 128, items: []Candidate{
		{ID: "1", Name: "Ana", Embedding: unit(128, 0, 1)},
		{ID: "2", Name: "Ben", Embedding: unit(128, 1, 1)},
	}}

	q := unit(128, 0, 0.95)
	q[1] = 0.05
	res, err := Match(q, g, DefaultTolerance)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, "1", res.ID)
	assert.InDelta(t, 0.0707, res.Distance, 1e-3)
	assert.InDelta(t, 1-res.Distance, res.Confidence, 1e-12)

	res, err = Match(unit(128, 127, 1), g, DefaultTolerance)
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestMatch_TieGoesToFirstScanned(t *testing.T) {
	g := &sliceGallery{dim: 2, items: []Candidate{
		{ID: "a", Name: "A", Embedding: []float64{1, 0}},
		{ID: "b", Name: "B", Embedding: []float64{-1, 0}},
	}}

	res, err := Match([]float64{0, 0}, g, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", res.ID)
}

func TestMatch_NegativeConfidencePassesThrough(t *testing.T) {
	g := &sliceGallery{dim: 2, items: []Candidate{{ID: "1", Name: "Ana", Embedding: []float64{0, 0}}}}

	res, err := Match([]float64{1.5, 0}, g, 2)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.InDelta(t, -0.5, res.Confidence, 1e-12)
}

func TestLinearMatcher(t *testing.T) {
	g := &sliceGallery{dim: 2, items: []Candidate{{ID: "1", Name: "Ana", Embedding: []float64{0, 0}}}}
	m := NewLinearMatcher(g)

	res, err := m.Match([]float64{0.1, 0}, DefaultTolerance)
	require.NoError(t, err)
	assert.True(t, res.Matched)
}

func TestNearest(t *testing.T) {
	g := &sliceGallery{dim: 2, items: []Candidate{
		{ID: "far", Name: "Far", Embedding: []float64{3, 0}},
		{ID: "near", Name: "Near", Embedding: []float64{1, 0}},
		{ID: "mid", Name: "Mid", Embedding: []float64{2, 0}},
	}}

	got, err := Nearest([]float64{0, 0}, g, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.InDelta(t, 1.0, got[0].Distance, 1e-12)

	got, err = Nearest([]float64{0, 0}, &sliceGallery{dim: 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Nearest([]float64{0}, g, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
