package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// CapturesHandler handles capture events.
type CapturesHandler struct {
	service *attendance.Service
}

// NewCapturesHandler creates a new captures handler.
func NewCapturesHandler(svc *attendance.Service) *CapturesHandler {
	return &CapturesHandler{service: svc}
}

// CaptureRequest is the body of POST /captures.
type CaptureRequest struct {
	Embedding []float64 `json:"embedding"`
}

// ImageCaptureResponse lists the outcome of every usable face.
type ImageCaptureResponse struct {
	Outcomes []attendance.Outcome `json:"outcomes"`
}

// Process matches a single embedding.
func (h *CapturesHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	out, err := h.service.ProcessCapture(r.Context(), req.Embedding)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// ProcessImage detects faces in an uploaded image and processes each of them.
func (h *CapturesHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcomes, err := h.service.ProcessImage(r.Context(), data)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ImageCaptureResponse{Outcomes: outcomes})
}
