// Package facematch implements nearest-identity search over enrolled face
// embeddings and the distance gate that decides whether a query is accepted.
package facematch

// DefaultTolerance is the distance a query must stay strictly below to be
// accepted as the nearest enrolled identity.
const DefaultTolerance = 0.6

// Candidate is one enrolled identity as seen by the matcher.
type Candidate struct {
	ID        string
	Name      string
	Embedding []float64
}

// MatchResult is the outcome of a single match. ID, Name, Confidence and
// Distance are only set when Matched is true.
type MatchResult struct {
	Matched    bool
	ID         string
	Name       string
	Confidence float64 // 1 - Distance, may be negative
	Distance   float64
}

// Neighbor is a diagnostic nearest-neighbor entry, independent of tolerance.
type Neighbor struct {
	ID       string
	Name     string
	Distance float64
}

// Gallery is the read side of an embedding store.
type Gallery interface {
	// Dim returns the embedding dimensionality every entry shares.
	Dim() int
	// Len returns the number of enrolled identities.
	Len() int
	// Scan calls fn for every entry until fn returns false. Implementations
	// hold their read lock for the whole scan.
	Scan(fn func(Candidate) bool)
}

// GalleryView is a consistent read-only view of a gallery. It is only valid
// inside the View callback that produced it.
type GalleryView interface {
	Gallery
	// Position returns the entry with the given ID and its index in scan order.
	Position(id string) (Candidate, int, bool)
}

// ViewGallery is a Gallery that can hold its read lock across several reads.
type ViewGallery interface {
	Gallery
	// View calls fn with a view of the gallery. No registration completes
	// until fn returns. fn must not call back into the gallery.
	View(fn func(GalleryView))
}

// Matcher finds the accepted nearest identity for a query embedding.
type Matcher interface {
	Match(query []float64, tolerance float64) (MatchResult, error)
}
