// Package detect talks to the external face service that detects faces in a
// frame and computes their embeddings. The service is a black box; whichever
// extractor produced the gallery artifact must also serve this endpoint so
// embeddings stay in one space.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultServiceURL = "http://localhost:8000"

// Client computes face detections and embeddings using the face service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new face service client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultServiceURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// faceDetection is one face in the service response.
type faceDetection struct {
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// faceResponse is the response from the face service endpoints.
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// postMultipartImage constructs a multipart form with the frame data and posts
// it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
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
		return nil, fmt.Errorf("face service error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Detect returns bounding boxes for all faces in the frame, without
// embeddings. Used in hold mode where only the location is needed.
func (c *Client) Detect(ctx context.Context, frameJPEG []byte) ([]Box, error) {
	body, err := c.postMultipartImage(ctx, "/faces/detect", frameJPEG)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	boxes := make([]Box, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		b, err := bboxToBox(f.BBox)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// Encode returns all faces in the frame with their embeddings.
func (c *Client) Encode(ctx context.Context, frameJPEG []byte) ([]Face, error) {
	body, err := c.postMultipartImage(ctx, "/faces/encode", frameJPEG)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		b, err := bboxToBox(f.BBox)
		if err != nil {
			return nil, err
		}
		if len(f.Embedding) == 0 {
			return nil, fmt.Errorf("face service returned no embedding for face at %+v", b)
		}
		faces = append(faces, Face{Box: b, Embedding: f.Embedding})
	}
	return faces, nil
}

func bboxToBox(bbox []float64) (Box, error) {
	if len(bbox) != 4 {
		return Box{}, fmt.Errorf("invalid bbox length %d", len(bbox))
	}
	return Box{
		Left:   int(bbox[0]),
		Top:    int(bbox[1]),
		Right:  int(bbox[2]),
		Bottom: int(bbox[3]),
	}, nil
}
