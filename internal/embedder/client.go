package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/face-auth/internal/logging"
)

// faceDetection is a single detected face in the service response.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"`
	DetScore  float64   `json:"det_score"`
}

// faceResponse is the body returned by the /embed/face endpoint.
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// HTTPClient computes face embeddings using the embedding model server.
type HTTPClient struct {
	baseURL string
	dim     int
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client for the model service at baseURL. dim is the
// dimensionality the deployed model produces; responses with any other
// dimension are rejected as internal errors.
func NewHTTPClient(baseURL string, dim int, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
		logger:  logger.Named("embedder"),
	}
}

// Dim returns the expected embedding dimensionality.
func (c *HTTPClient) Dim() int {
	return c.dim
}

// EmbedFace posts the image to the model service and returns the embedding of
// the single detected face.
func (c *HTTPClient) EmbedFace(ctx context.Context, imageBytes []byte) (Embedding, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", imageBytes)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, logging.NewOperationError("embedder.decode_response", "", err)
	}

	switch {
	case resp.FacesCount == 0 || len(resp.Faces) == 0:
		return nil, NewNoFaceError()
	case resp.FacesCount > 1:
		return nil, NewMultipleFacesError(resp.FacesCount)
	}

	embedding := resp.Faces[0].Embedding
	if len(embedding) != c.dim {
		err := fmt.Errorf("model returned %d-dim embedding, want %d", len(embedding), c.dim)
		c.logger.Error("embedding dimension mismatch", zap.Error(err), zap.String("model", resp.Model))
		return nil, logging.NewOperationError("embedder.embed_face", "", err)
	}

	return embedding, nil
}

// Healthcheck confirms the model service answers on /health. Called before
// serving traffic so that a cold model fails the boot, not a user request.
func (c *HTTPClient) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return logging.NewOperationError("embedder.healthcheck", "", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return logging.NewOperationError("embedder.healthcheck", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return logging.NewOperationError("embedder.healthcheck", "",
			fmt.Errorf("model service not ready (status %d)", resp.StatusCode))
	}
	return nil
}

// postMultipartImage posts the image as a multipart form to the given
// endpoint. The part carries an explicit Content-Type from magic-byte
// sniffing so the service does not have to guess.
func (c *HTTPClient) postMultipartImage(ctx context.Context, endpoint string, imageBytes []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="face.jpg"`)
	header.Set("Content-Type", http.DetectContentType(imageBytes))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageBytes); err != nil {
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

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, logging.NewOperationError("embedder.post_image", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, logging.NewOperationError("embedder.read_response", "", err)
	}

	c.logger.Debug("model service call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// The service rejected the image itself, surface its reason verbatim.
		return nil, &DetectionError{Reason: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, logging.NewOperationError("embedder.post_image", "",
			fmt.Errorf("model service error (status %d): %s", resp.StatusCode, string(body)))
	}

	return body, nil
}
