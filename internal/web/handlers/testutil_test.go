package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database/memory"
	"github.com/kozaktomas/face-attendance/internal/encoder"
	"github.com/kozaktomas/face-attendance/internal/identity"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// testDim keeps request bodies short
const testDim = 4

// testNow is the fixed clock of the test service
var testNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

// stubEncoder returns fixed faces for every image
type stubEncoder struct {
	faces []encoder.Face
	err   error
}

func (s *stubEncoder) DetectFaces(ctx context.Context, image []byte) ([]encoder.Face, error) {
	return s.faces, s.err
}

// testService creates a service over an in-memory backend
func testService(t *testing.T, enc attendance.FaceEncoder) (*attendance.Service, *memory.Backend) {
	t.Helper()
	backend := memory.NewBackend()
	store, err := identity.Open(context.Background(), backend, testDim)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	l := ledger.New(backend, ledger.WithLocation(time.UTC), ledger.WithClock(func() time.Time { return testNow }))

	opts := []attendance.Option{attendance.WithClock(func() time.Time { return testNow })}
	if enc != nil {
		opts = append(opts, attendance.WithEncoder(enc))
	}
	return attendance.NewService(store, l, opts...), backend
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a multipart request with a "file" part and extra fields
func multipartRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "capture.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(file)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// decode unmarshals a recorder body
func decode(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}
