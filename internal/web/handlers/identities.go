package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/identity"
)

// IdentitiesHandler handles registration endpoints.
type IdentitiesHandler struct {
	service *attendance.Service
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(svc *attendance.Service) *IdentitiesHandler {
	return &IdentitiesHandler{service: svc}
}

// IdentityResponse represents an enrolled identity in API responses.
type IdentityResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Dim  int    `json:"dim"`
}

// RegisterRequest is the body of POST /identities.
type RegisterRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Embedding []float64 `json:"embedding"`
}

func toIdentityResponse(it identity.Identity) IdentityResponse {
	return IdentityResponse{ID: it.ID, Name: it.Name, Dim: len(it.Embedding)}
}

// List returns every identity, or those matching ?name=.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	store := h.service.Store()

	var items []identity.Identity
	if name := r.URL.Query().Get("name"); name != "" {
		items = store.FindByName(name)
	} else {
		items = store.All()
	}

	result := make([]IdentityResponse, len(items))
	for i, it := range items {
		result[i] = toIdentityResponse(it)
	}
	respondJSON(w, http.StatusOK, result)
}

// Create registers or replaces an identity from a JSON embedding.
func (h *IdentitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.service.Register(r.Context(), req.ID, req.Name, req.Embedding); err != nil {
		respondServiceError(w, r, err)
		return
	}

	it, _ := h.service.Store().Get(strings.TrimSpace(req.ID))
	respondJSON(w, http.StatusCreated, toIdentityResponse(it))
}

// CreateFromImage registers the first face of an uploaded image.
func (h *IdentitiesHandler) CreateFromImage(w http.ResponseWriter, r *http.Request) {
	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.service.RegisterFromImage(r.Context(), r.FormValue("id"), r.FormValue("name"), data)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toIdentityResponse(it))
}
