// Package attendance ties matching and the attendance ledger together: every
// capture is matched against the enrolled identities and, when accepted,
// recorded at most once per person and day.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

var (
	// ErrNoUsableFace is returned by registration when the image has no face with an embedding.
	ErrNoUsableFace = errors.New("no usable face in image")
	// ErrNoEncoder is returned by image flows when the service has no encoder.
	ErrNoEncoder = errors.New("no face encoder configured")
)

// FaceEncoder detects faces in an image and embeds them.
type FaceEncoder interface {
	DetectFaces(ctx context.Context, image []byte) ([]encoder.Face, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher replaces the default linear matcher over the store.
func WithMatcher(m facematch.Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithTolerance sets the accept distance. Values <= 0 keep the default.
func WithTolerance(tolerance float64) Option {
	return func(s *Service) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

// WithEncoder enables the image flows.
func WithEncoder(enc FaceEncoder) Option {
	return func(s *Service) {
		s.encoder = enc
	}
}

// WithClock replaces time.Now for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service processes capture events.
type Service struct {
	store     *identity.Store
	ledger    *ledger.Ledger
	matcher   facematch.Matcher
	encoder   FaceEncoder
	tolerance float64
	now       func() time.Time
}

// NewService creates a service over an identity store and a ledger.
func NewService(store *identity.Store, l *ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ledger:    l,
		tolerance: facematch.DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.matcher == nil {
		s.matcher = facematch.NewLinearMatcher(store)
	}
	return s
}

// Store returns the identity store.
func (s *Service) Store() *identity.Store {
	return s.store
}

// Ledger returns the attendance ledger.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// Tolerance returns the accept distance.
func (s *Service) Tolerance() float64 {
	return s.tolerance
}

// HasEncoder reports whether image flows are available.
func (s *Service) HasEncoder() bool {
	return s.encoder != nil
}

// ProcessCapture matches one embedding and records attendance on acceptance.
// Unmatched and already-marked captures are normal outcomes, not errors.
func (s *Service) ProcessCapture(ctx context.Context, embedding []float64) (Outcome, error) {
	res, err := s.matcher.Match(embedding, s.tolerance)
	if err != nil {
		return Outcome{}, fmt.Errorf("matching capture: %w", err)
	}
	if !res.Matched {
		return Outcome{Status: StatusUnmatched}, nil
	}

	ts := s.now()
	recorded, err := s.ledger.Record(ctx, res.ID, res.Name, ts)
	if err != nil {
		return Outcome{}, fmt.Errorf("recording attendance for %s: %w", res.ID, err)
	}

	out := Outcome{
		Status:     StatusAlreadyMarked,
		ID:         res.ID,
		Name:       res.Name,
		Confidence: res.Confidence,
	}
	if recorded {
		out.Status = StatusMarked
		out.Timestamp = ts
	}
	return out, nil
}

// ProcessImage runs every usable face of the image through ProcessCapture.
// Faces without an embedding are skipped; when none is usable the result is
// a single no_usable_face outcome.
func (s *Service) ProcessImage(ctx context.Context, image []byte) ([]Outcome, error) {
	faces, err := s.detect(ctx, image)
	if err != nil {
		return nil, err
	}

	var outcomes []Outcome
	for _, face := range faces {
		if !face.HasEmbedding() {
			continue
		}
		out, err := s.ProcessCapture(ctx, face.Embedding)
		if err != nil {
			return outcomes, fmt.Errorf("face %d: %w", face.Index, err)
		}
		outcomes = append(outcomes, out)
	}

	if len(outcomes) == 0 {
		return []Outcome{{Status: StatusNoUsableFace}}, nil
	}
	return outcomes, nil
}

// Register enrolls or replaces an identity.
func (s *Service) Register(ctx context.Context, id, name string, embedding []float64) error {
	return s.store.Add(ctx, id, name, embedding)
}

// RegisterFromImage enrolls the first detected face of the image.
func (s *Service) RegisterFromImage(ctx context.Context, id, name string, image []byte) (identity.Identity, error) {
	embedding, err := s.FirstFace(ctx, image)
	if err != nil {
		return identity.Identity{}, err
	}

	if err := s.store.Add(ctx, id, name, embedding); err != nil {
		return identity.Identity{}, err
	}
	registered, _ := s.store.Get(strings.TrimSpace(id))
	return registered, nil
}

// FirstFace returns the embedding of the first detected face, or
// ErrNoUsableFace when there is no face or the first one has no embedding.
func (s *Service) FirstFace(ctx context.Context, image []byte) ([]float64, error) {
	faces, err := s.detect(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 || !faces[0].HasEmbedding() {
		return nil, ErrNoUsableFace
	}
	if len(faces) > 1 {
		log.Printf("attendance: %d faces detected, using the first", len(faces))
	}
	return faces[0].Embedding, nil
}

func (s *Service) detect(ctx context.Context, image []byte) ([]encoder.Face, error) {
	if s.encoder == nil {
		return nil, ErrNoEncoder
	}
	faces, err := s.encoder.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	return faces, nil
}
