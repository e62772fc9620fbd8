package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/memory"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/database/sqlite"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/export"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// app holds the components every command works with.
type app struct {
	cfg      *config.Config
	backend  database.Backend
	kind     string
	location *time.Location
	service  *attendance.Service
	exporter *export.Exporter
}

// openBackend opens the storage backend selected by the configuration.
func openBackend(ctx context.Context, cfg *config.Config) (database.Backend, string, error) {
	kind, err := cfg.StorageBackend()
	if err != nil {
		return nil, "", err
	}

	switch kind {
	case config.BackendPostgres:
		fmt.Printf("Connecting to PostgreSQL database...\n")
		b, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return b, kind, nil
	case config.BackendSQLite:
		b, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database: %w", err)
		}
		return b, kind, nil
	default:
		fmt.Printf("Warning: using in-memory storage, nothing will be persisted\n")
		return memory.NewBackend(), kind, nil
	}
}

// newApp opens storage and builds the identity store, ledger and service.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return nil, err
	}

	backend, kind, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var storeOpts []identity.Option
	var index *facematch.HNSWIndex
	switch cfg.Matching.Index {
	case config.IndexLinear:
	case config.IndexHNSW:
		index = facematch.NewHNSWIndex()
		storeOpts = append(storeOpts, identity.WithIndex(index))
	default:
		backend.Close()
		return nil, fmt.Errorf("unknown MATCH_INDEX %q", cfg.Matching.Index)
	}

	store, err := identity.Open(ctx, backend, cfg.Matching.EmbeddingDim, storeOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	l := ledger.New(backend, ledger.WithLocation(loc))

	svcOpts := []attendance.Option{
		attendance.WithTolerance(cfg.Matching.Tolerance),
		attendance.WithEncoder(encoder.NewClient(cfg.Encoder.URL, cfg.Matching.EmbeddingDim,
			encoder.WithMaxImageSize(cfg.Encoder.MaxImageSize),
			encoder.WithMinFaceWidth(constants.MinFaceWidthPx),
		)),
	}
	if index != nil {
		svcOpts = append(svcOpts, attendance.WithMatcher(facematch.NewIndexedMatcher(store, index)))
	}

	return &app{
		cfg:      cfg,
		backend:  backend,
		kind:     kind,
		location: loc,
		service:  attendance.NewService(store, l, svcOpts...),
		exporter: export.NewExporter(l, cfg.Export.Dir),
	}, nil
}

// Close releases the storage backend.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		fmt.Printf("Warning: closing storage: %v\n", err)
	}
}

// today returns the current attendance date.
func (a *app) today() string {
	return a.service.Ledger().DateOf(time.Now())
}
