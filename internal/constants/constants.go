// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Enrollment constants
const (
	// DefaultConcurrency is the default number of parallel encoder calls in enroll-dir
	DefaultConcurrency = 4

	// MinFaceWidthPx is the narrowest bounding box the encoder result is trusted for.
	// Smaller faces are reported without an embedding.
	MinFaceWidthPx = 40
)

// Matching constants
const (
	// DefaultNearestLimit is the default number of neighbors listed by `identities nearest`
	DefaultNearestLimit = 5
)

// HTTP constants
const (
	// MaxUploadSize is the maximum capture or registration image size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// ShutdownTimeout bounds graceful shutdown of the server and the export scheduler
	ShutdownTimeout = 30 * time.Second
)

// Display constants
const (
	// DisplayTimeLayout is the 12-hour clock used in CLI listings
	DisplayTimeLayout = "03:04 PM"
)
