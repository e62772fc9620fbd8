package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
		"STORAGE_BACKEND", "SQLITE_PATH", "EMBEDDING_DIM", "MATCH_TOLERANCE", "MATCH_INDEX",
		"ENCODER_URL", "ENCODER_MAX_IMAGE_SIZE", "ATTENDANCE_TIMEZONE",
		"EXPORT_DIR", "EXPORT_SCHEDULE", "WEB_HOST", "WEB_PORT", "WEB_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Matching.EmbeddingDim != 128 {
		t.Errorf("expected default embedding dim 128, got %d", cfg.Matching.EmbeddingDim)
	}
	if cfg.Matching.Tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %v", cfg.Matching.Tolerance)
	}
	if cfg.Matching.Index != IndexLinear {
		t.Errorf("expected default index %q, got %q", IndexLinear, cfg.Matching.Index)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("expected default max idle conns 5, got %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Storage.SQLitePath != "data/attendance.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Storage.SQLitePath)
	}
	if cfg.Encoder.URL != "http://localhost:8000" {
		t.Errorf("unexpected encoder url %q", cfg.Encoder.URL)
	}
	if cfg.Encoder.MaxImageSize != 1600 {
		t.Errorf("expected max image size 1600, got %d", cfg.Encoder.MaxImageSize)
	}
	if cfg.Export.Dir != "data/attendance_logs/exports" {
		t.Errorf("unexpected export dir %q", cfg.Export.Dir)
	}
	if cfg.Export.Schedule != "" {
		t.Errorf("expected export schedule disabled, got %q", cfg.Export.Schedule)
	}
	if cfg.Web.Port != 8080 || cfg.Web.Host != "0.0.0.0" {
		t.Errorf("unexpected web bind %s:%d", cfg.Web.Host, cfg.Web.Port)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_DIM", "512")
	t.Setenv("MATCH_TOLERANCE", "0.45")
	t.Setenv("MATCH_INDEX", "HNSW")
	t.Setenv("ENCODER_URL", "http://encoder:9000")
	t.Setenv("EXPORT_SCHEDULE", "55 23 * * *")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://kiosk.example.com, ,https://admin.example.com ")

	cfg := Load()

	if cfg.Matching.EmbeddingDim != 512 {
		t.Errorf("expected embedding dim 512, got %d", cfg.Matching.EmbeddingDim)
	}
	if cfg.Matching.Tolerance != 0.45 {
		t.Errorf("expected tolerance 0.45, got %v", cfg.Matching.Tolerance)
	}
	if cfg.Matching.Index != IndexHNSW {
		t.Errorf("expected index %q, got %q", IndexHNSW, cfg.Matching.Index)
	}
	if cfg.Encoder.URL != "http://encoder:9000" {
		t.Errorf("unexpected encoder url %q", cfg.Encoder.URL)
	}
	if cfg.Export.Schedule != "55 23 * * *" {
		t.Errorf("unexpected export schedule %q", cfg.Export.Schedule)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected allowed origins %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric dim", "EMBEDDING_DIM", "invalid"},
		{"negative dim", "EMBEDDING_DIM", "-100"},
		{"zero dim", "EMBEDDING_DIM", "0"},
		{"non-numeric tolerance", "MATCH_TOLERANCE", "loose"},
		{"negative tolerance", "MATCH_TOLERANCE", "-0.5"},
		{"zero tolerance", "MATCH_TOLERANCE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg := Load()

			if cfg.Matching.EmbeddingDim != 128 {
				t.Errorf("expected default embedding dim 128, got %d", cfg.Matching.EmbeddingDim)
			}
			if cfg.Matching.Tolerance != 0.6 {
				t.Errorf("expected default tolerance 0.6, got %v", cfg.Matching.Tolerance)
			}
		})
	}
}

func TestStorageBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		dbURL   string
		want    string
		wantErr bool
	}{
		{"explicit sqlite", "sqlite", "postgres://x", BackendSQLite, false},
		{"explicit memory", "memory", "", BackendMemory, false},
		{"implicit postgres", "", "postgres://x", BackendPostgres, false},
		{"implicit sqlite", "", "", BackendSQLite, false},
		{"unknown", "mongo", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{URL: tt.dbURL},
				Storage:  StorageConfig{Backend: tt.backend},
			}
			got, err := cfg.StorageBackend()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for backend %q", tt.backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("StorageBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttendanceLocation(t *testing.T) {
	cfg := AttendanceConfig{}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != time.Local {
		t.Errorf("expected local time zone, got %v", loc)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("expected UTC, got %v", loc)
	}

	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown time zone")
	}
}
