// Package encoder talks to the face embedding server. The server detects
// faces in an uploaded image and returns one embedding per detected face.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultURL     = "http://localhost:8000"
	defaultTimeout = 60 * time.Second
)

// ErrEncoderUnavailable wraps transport, status and decoding failures.
var ErrEncoderUnavailable = errors.New("face encoder unavailable")

// Face is one detected face. Embedding is nil when the server could not
// produce a usable embedding for it.
type Face struct {
	Index     int
	BBox      []float64 // [x1, y1, x2, y2]
	DetScore  float64
	Embedding []float64
}

// HasEmbedding reports whether the face can be matched.
func (f Face) HasEmbedding() bool {
	return f.Embedding != nil
}

// Width returns the bounding box width in pixels, 0 if unknown.
func (f Face) Width() float64 {
	if len(f.BBox) < 4 {
		return 0
	}
	return f.BBox[2] - f.BBox[0]
}

// faceDetection is a single face in the server response
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"`
	DetScore  float64   `json:"det_score"`
}

// faceResponse is the response of the /embed/face endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithMaxImageSize downscales uploads whose longest edge exceeds px. 0 disables it.
func WithMaxImageSize(px int) Option {
	return func(c *Client) {
		c.maxImageSize = px
	}
}

// WithMinFaceWidth treats faces narrower than px as having no embedding.
func WithMinFaceWidth(px float64) Option {
	return func(c *Client) {
		c.minFaceWidth = px
	}
}

// Client computes face embeddings using the embedding server
type Client struct {
	baseURL      string
	dim          int
	maxImageSize int
	minFaceWidth float64
	client       *http.Client
}

// NewClient creates a client for the server at baseURL. Embeddings whose
// length differs from dim are reported as absent.
func NewClient(baseURL string, dim int, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DetectFaces uploads the image and returns every detected face in server order.
func (c *Client) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	if len(imageData) == 0 {
		return nil, errors.New("empty image")
	}

	if c.maxImageSize > 0 {
		resized, err := FitImage(imageData, c.maxImageSize)
		if err != nil {
			return nil, err
		}
		imageData = resized
	}

	body, err := c.postImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrEncoderUnavailable, err)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, d := range resp.Faces {
		face := Face{
			Index:    d.FaceIndex,
			BBox:     d.BBox,
			DetScore: d.DetScore,
		}
		if c.usable(d) && (c.minFaceWidth <= 0 || face.Width() >= c.minFaceWidth) {
			face.Embedding = toFloat64(d.Embedding)
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func (c *Client) usable(d faceDetection) bool {
	if len(d.Embedding) == 0 || (c.dim > 0 && len(d.Embedding) != c.dim) {
		return false
	}
	for _, x := range d.Embedding {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// postImage posts the image as the multipart "file" field with a sniffed content type.
func (c *Client) postImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	// WebP: RIFF .... WEBP
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	return "application/octet-stream"
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
