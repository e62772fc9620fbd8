package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Match index kinds selectable with MATCH_INDEX.
const (
	IndexLinear = "linear"
	IndexHNSW   = "hnsw"
)

type Config struct {
	Database   DatabaseConfig
	Storage    StorageConfig
	Matching   MatchingConfig
	Encoder    EncoderConfig
	Attendance AttendanceConfig
	Export     ExportConfig
	Web        WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	Backend    string // postgres, sqlite or memory; empty picks postgres when DATABASE_URL is set
	SQLitePath string // defaults to data/attendance.db
}

type MatchingConfig struct {
	EmbeddingDim int     // defaults to 128
	Tolerance    float64 // defaults to 0.6
	Index        string  // linear or hnsw
}

type EncoderConfig struct {
	URL          string // defaults to http://localhost:8000
	MaxImageSize int    // longest edge in pixels before upload, defaults to 1600
}

type AttendanceConfig struct {
	Timezone string // IANA name used to derive attendance dates, empty means local time
}

type ExportConfig struct {
	Dir      string // defaults to data/attendance_logs/exports
	Schedule string // cron expression for the daily export, empty disables it
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // from comma-separated WEB_ALLOWED_ORIGINS
}

// defaults mirrors the layout of defaults.yaml.
type defaults struct {
	Database struct {
		MaxOpenConns int `yaml:"max_open_conns"`
		MaxIdleConns int `yaml:"max_idle_conns"`
	} `yaml:"database"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Matching struct {
		EmbeddingDim int     `yaml:"embedding_dim"`
		Tolerance    float64 `yaml:"tolerance"`
		Index        string  `yaml:"index"`
	} `yaml:"matching"`
	Encoder struct {
		URL          string `yaml:"url"`
		MaxImageSize int    `yaml:"max_image_size"`
	} `yaml:"encoder"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Web struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"web"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString returns the env var or the default when it is unset or blank.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadDefaults() defaults {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

func Load() *Config {
	d := loadDefaults()

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(os.Getenv("STORAGE_BACKEND")),
			SQLitePath: envString("SQLITE_PATH", d.Storage.SQLitePath),
		},
		Matching: MatchingConfig{
			EmbeddingDim: envInt("EMBEDDING_DIM", d.Matching.EmbeddingDim),
			Tolerance:    envFloat("MATCH_TOLERANCE", d.Matching.Tolerance),
			Index:        strings.ToLower(envString("MATCH_INDEX", d.Matching.Index)),
		},
		Encoder: EncoderConfig{
			URL:          envString("ENCODER_URL", d.Encoder.URL),
			MaxImageSize: envInt("ENCODER_MAX_IMAGE_SIZE", d.Encoder.MaxImageSize),
		},
		Attendance: AttendanceConfig{
			Timezone: os.Getenv("ATTENDANCE_TIMEZONE"),
		},
		Export: ExportConfig{
			Dir:      envString("EXPORT_DIR", d.Export.Dir),
			Schedule: os.Getenv("EXPORT_SCHEDULE"),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", d.Web.Host),
			Port: envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: splitList(os.Getenv("WEB_ALLOWED_ORIGINS")),
		},
	}
}

// StorageBackend resolves which backend to open. An explicit STORAGE_BACKEND
// wins; otherwise PostgreSQL is used when DATABASE_URL is set and SQLite when not.
func (c *Config) StorageBackend() (string, error) {
	switch c.Storage.Backend {
	case BackendPostgres, BackendSQLite, BackendMemory:
		return c.Storage.Backend, nil
	case "":
		if c.Database.URL != "" {
			return BackendPostgres, nil
		}
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
}

// Location returns the time zone attendance dates are derived in.
func (c *AttendanceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading ATTENDANCE_TIMEZONE: %w", err)
	}
	return loc, nil
}
