package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/encoder"
)

func TestIdentitiesHandler_Create(t *testing.T) {
	svc, _ := testService(t, nil)
	h := NewIdentitiesHandler(svc)

	recorder := httptest.NewRecorder()
	h.Create(recorder, jsonRequest(t, "POST", "/api/v1/identities", RegisterRequest{
		ID: "42", Name: "Ana", Embedding: []float64{1, 0, 0, 0},
	}))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	var result IdentityResponse
	decode(t, recorder, &result)
	if result.ID != "42" || result.Name != "Ana" || result.Dim != testDim {
		t.Errorf("unexpected response %+v", result)
	}
	if svc.Store().Len() != 1 {
		t.Errorf("expected 1 identity, got %d", svc.Store().Len())
	}
}

func TestIdentitiesHandler_CreateErrors(t *testing.T) {
	svc, backend := testService(t, nil)
	h := NewIdentitiesHandler(svc)

	tests := []struct {
		name       string
		body       any
		storeErr   error
		wantStatus int
	}{
		{"invalid json", "not an object", nil, http.StatusBadRequest},
		{"empty id", RegisterRequest{Name: "Ana", Embedding: []float64{1, 0, 0, 0}}, nil, http.StatusBadRequest},
		{"wrong dimension", RegisterRequest{ID: "1", Name: "Ana", Embedding: []float64{1}}, nil, http.StatusBadRequest},
		{"store down", RegisterRequest{ID: "1", Name: "Ana", Embedding: []float64{1, 0, 0, 0}}, errors.New("down"), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend.SaveIdentityError = tc.storeErr
			recorder := httptest.NewRecorder()
			h.Create(recorder, jsonRequest(t, "POST", "/api/v1/identities", tc.body))

			if recorder.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, recorder.Code)
			}
		})
	}
}

func TestIdentitiesHandler_List(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	if err := svc.Register(ctx, "1", "Jiří", []float64{1, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Register(ctx, "2", "Ana", []float64{0, 1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	h := NewIdentitiesHandler(svc)

	recorder := httptest.NewRecorder()
	h.List(recorder, httptest.NewRequest("GET", "/api/v1/identities", nil))
	var all []IdentityResponse
	decode(t, recorder, &all)
	if len(all) != 2 || all[0].ID != "1" {
		t.Errorf("unexpected list %+v", all)
	}

	recorder = httptest.NewRecorder()
	h.List(recorder, httptest.NewRequest("GET", "/api/v1/identities?name=jiri", nil))
	var filtered []IdentityResponse
	decode(t, recorder, &filtered)
	if len(filtered) != 1 || filtered[0].Name != "Jiří" {
		t.Errorf("unexpected filtered list %+v", filtered)
	}
}

func TestIdentitiesHandler_CreateFromImage(t *testing.T) {
	enc := &stubEncoder{faces: []encoder.Face{{Index: 0, Embedding: []float64{0, 0, 1, 0}}}}
	svc, _ := testService(t, enc)
	h := NewIdentitiesHandler(svc)

	recorder := httptest.NewRecorder()
	h.CreateFromImage(recorder, multipartRequest(t, "/api/v1/identities/image", []byte("jpeg"), map[string]string{"id": "7", "name": "Eva"}))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	enc.faces = []encoder.Face{{Index: 0}}
	recorder = httptest.NewRecorder()
	h.CreateFromImage(recorder, multipartRequest(t, "/api/v1/identities/image", []byte("jpeg"), map[string]string{"id": "8", "name": "Jan"}))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for no usable face, got %d", http.StatusBadRequest, recorder.Code)
	}

	recorder = httptest.NewRecorder()
	h.CreateFromImage(recorder, multipartRequest(t, "/api/v1/identities/image", nil, map[string]string{"id": "8", "name": "Jan"}))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for missing file, got %d", http.StatusBadRequest, recorder.Code)
	}
}
