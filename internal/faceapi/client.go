// Package faceapi talks to the external face embedding/detection server.
// The server wraps the actual models; this client only passes the configured
// model and detector identifiers through and normalizes what comes back.
package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultBaseURL = "http://localhost:8000"

// ErrNoFace is returned when the server finds no face in the submitted image.
var ErrNoFace = errors.New("no face detected in image")

// Client computes face embeddings and detections using the embedding server.
type Client struct {
	baseURL  string
	model    string
	detector string
	client   *http.Client
}

// NewClient creates a new embedding server client. The model and detector
// identifiers are not interpreted locally; they select backends on the server.
func NewClient(baseURL, model, detector string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		model:    model,
		detector: detector,
		client:   &http.Client{},
	}
}

// Model returns the embedding model identifier being used.
func (c *Client) Model() string {
	return c.model
}

// representResponse is the wire form of a single-face embedding.
type representResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// extractResponse is the wire form of the face detection endpoint.
type extractResponse struct {
	FacesCount int `json:"faces_count"`
	Faces      []struct {
		FacialArea facialArea `json:"facial_area"`
	} `json:"faces"`
}

type apiError struct {
	Error string `json:"error"`
}

// postImage posts the image as a multipart form together with the model and
// detector identifiers and returns the response body.
func (c *Client) postImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("detector_backend", c.detector); err != nil {
		return nil, fmt.Errorf("failed to write detector field: %w", err)
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

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoFace, apiErr.Error)
		}
		return nil, ErrNoFace
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Represent computes one embedding for an image that contains a single face.
// Returns ErrNoFace when the server cannot find a face in the image.
func (c *Client) Represent(ctx context.Context, imageData []byte) ([]float32, error) {
	body, err := c.postImage(ctx, "/represent", imageData)
	if err != nil {
		return nil, err
	}

	var repResp representResponse
	if err := json.Unmarshal(body, &repResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(repResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}

	return repResp.Embedding, nil
}

// ExtractFaces detects faces in an image and returns their bounding boxes in
// detection order. Boxes are normalized to top-left + size; callers still
// need to clamp them to the decoded image bounds.
func (c *Client) ExtractFaces(ctx context.Context, imageData []byte) ([]Box, error) {
	body, err := c.postImage(ctx, "/extract-faces", imageData)
	if err != nil {
		return nil, err
	}

	var extResp extractResponse
	if err := json.Unmarshal(body, &extResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	boxes := make([]Box, 0, len(extResp.Faces))
	for i, f := range extResp.Faces {
		box, err := f.FacialArea.toBox()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		boxes = append(boxes, box)
	}

	return boxes, nil
}
