// Package identity holds the registry of enrolled people and their face
// embeddings. The registry is loaded from a repository once and every
// registration is written through before it becomes visible to matching.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

var (
	// ErrInvalidIdentity is returned when the id or name is empty.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrInvalidEmbedding is returned when the embedding has the wrong length or non-finite values.
	ErrInvalidEmbedding = errors.New("invalid embedding")
	// ErrStoreUnavailable wraps failures of the backing repository.
	ErrStoreUnavailable = errors.New("identity store unavailable")
)

// Identity is one enrolled person.
type Identity = facematch.Candidate

// Indexer receives every accepted registration, e.g. an HNSW index.
type Indexer interface {
	Upsert(id string, embedding []float64)
}

// Option configures a Store.
type Option func(*Store)

// WithIndex mirrors every registration into idx.
func WithIndex(idx Indexer) Option {
	return func(s *Store) {
		s.index = idx
	}
}

// Store is the in-memory view of the identity registry.
type Store struct {
	repo  database.IdentityWriter
	dim   int
	index Indexer

	mu    sync.RWMutex
	byID  map[string]int
	items []Identity
}

// Open creates a store of dim-length embeddings and loads every persisted
// identity from repo. Entries with a different dimensionality are skipped.
func Open(ctx context.Context, repo database.IdentityWriter, dim int, opts ...Option) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}

	s := &Store{
		repo: repo,
		dim:  dim,
		byID: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	stored, err := repo.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading identities: %w", ErrStoreUnavailable, err)
	}

	for _, si := range stored {
		if err := facematch.ValidateEmbedding(si.Embedding, dim); err != nil {
			log.Printf("identity: skipping %q: %v", si.PersonID, err)
			continue
		}
		s.put(Identity{ID: si.PersonID, Name: si.Name, Embedding: si.Embedding})
	}

	return s, nil
}

// Add registers or replaces the identity with the given id. The repository
// write completes before the new entry is visible to readers.
func (s *Store) Add(ctx context.Context, id, name string, embedding []float64) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidIdentity)
	}
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidIdentity)
	}
	if err := facematch.ValidateEmbedding(embedding, s.dim); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, err)
	}

	entry := Identity{ID: id, Name: name, Embedding: slices.Clone(embedding)}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.SaveIdentity(ctx, database.StoredIdentity{
		PersonID:  entry.ID,
		Name:      entry.Name,
		Embedding: entry.Embedding,
	})
	if err != nil {
		return fmt.Errorf("%w: saving %q: %w", ErrStoreUnavailable, id, err)
	}

	s.put(entry)
	return nil
}

// put inserts or replaces in place. Callers hold the write lock or own s exclusively.
func (s *Store) put(entry Identity) {
	if i, ok := s.byID[entry.ID]; ok {
		s.items[i] = entry
	} else {
		s.byID[entry.ID] = len(s.items)
		s.items = append(s.items, entry)
	}
	if s.index != nil {
		s.index.Upsert(entry.ID, entry.Embedding)
	}
}

// All returns a snapshot of every identity in registration order.
func (s *Store) All() []Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Identity, len(s.items))
	for i, it := range s.items {
		out[i] = clone(it)
	}
	return out
}

// IsEmpty reports whether no identity is enrolled.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of enrolled identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Dim returns the embedding dimensionality.
func (s *Store) Dim() int {
	return s.dim
}

// Get returns a copy of the identity with the given id.
func (s *Store) Get(id string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Identity{}, false
	}
	return clone(s.items[i]), true
}

// View implements facematch.ViewGallery. fn runs under the read lock and
// must not call back into the store.
func (s *Store) View(fn func(facematch.GalleryView)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(lockedView{s})
}

// lockedView reads a store whose read lock is already held.
type lockedView struct {
	s *Store
}

func (v lockedView) Dim() int { return v.s.dim }
func (v lockedView) Len() int { return len(v.s.items) }

func (v lockedView) Scan(fn func(Identity) bool) {
	for _, it := range v.s.items {
		if !fn(it) {
			return
		}
	}
}

func (v lockedView) Position(id string) (Identity, int, bool) {
	i, ok := v.s.byID[id]
	if !ok {
		return Identity{}, 0, false
	}
	return v.s.items[i], i, true
}

// FindByName returns identities whose normalized name equals the normalized query.
func (s *Store) FindByName(name string) []Identity {
	want := facematch.NormalizePersonName(name)
	if want == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Identity
	for _, it := range s.items {
		if facematch.NormalizePersonName(it.Name) == want {
			out = append(out, clone(it))
		}
	}
	return out
}

// Scan calls fn for every identity under the read lock, so no registration
// can interleave with it. fn must not call back into the store's writers.
// The embedding passed to fn must not be modified.
func (s *Store) Scan(fn func(Identity) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if !fn(it) {
			return
		}
	}
}

func clone(it Identity) Identity {
	it.Embedding = slices.Clone(it.Embedding)
	return it
}
