package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidIdentity),
		errors.Is(err, identity.ErrInvalidEmbedding),
		errors.Is(err, facematch.ErrDimensionMismatch),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidRecord),
		errors.Is(err, attendance.ErrNoUsableFace):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrStoreUnavailable),
		errors.Is(err, ledger.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, encoder.ErrEncoderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, attendance.ErrNoEncoder):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs server-side failures and sends the mapped status.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, sanitizeForLog(r.URL.Path), err)
	}
	respondError(w, status, err.Error())
}

// readUploadedImage reads the multipart "file" field.
func readUploadedImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, errors.New("failed to parse multipart form")
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > constants.MaxUploadSize {
		return nil, errors.New("file too large")
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	return data, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
