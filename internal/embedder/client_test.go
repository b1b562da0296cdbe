package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFaceServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestEmbedFaceReturnsSingleFaceEmbedding(t *testing.T) {
	embedding := make([]float32, 4)
	for i := range embedding {
		embedding[i] = float32(i) * 0.25
	}

	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed/face", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
		writeJSON(t, w, faceResponse{
			FacesCount: 1,
			Faces:      []faceDetection{{FaceIndex: 0, Dim: 4, Embedding: embedding, DetScore: 0.99}},
			Model:      "facenet",
		})
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	got, err := client.EmbedFace(context.Background(), []byte("fake-image"))
	require.NoError(t, err)
	assert.Equal(t, Embedding(embedding), got)
}

func TestEmbedFaceClassifiesNoFace(t *testing.T) {
	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, faceResponse{FacesCount: 0})
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	_, err := client.EmbedFace(context.Background(), []byte("fake-image"))

	var detErr *DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Equal(t, 0, detErr.Faces)
	assert.Contains(t, detErr.Error(), "no face")
}

func TestEmbedFaceClassifiesMultipleFaces(t *testing.T) {
	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, faceResponse{
			FacesCount: 2,
			Faces: []faceDetection{
				{FaceIndex: 0, Embedding: []float32{1, 0, 0, 0}},
				{FaceIndex: 1, Embedding: []float32{0, 1, 0, 0}},
			},
		})
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	_, err := client.EmbedFace(context.Background(), []byte("fake-image"))

	var detErr *DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Equal(t, 2, detErr.Faces)
}

func TestEmbedFaceRejectsWrongDimension(t *testing.T) {
	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, faceResponse{
			FacesCount: 1,
			Faces:      []faceDetection{{Embedding: []float32{1, 2}}},
		})
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	_, err := client.EmbedFace(context.Background(), []byte("fake-image"))
	require.Error(t, err)

	var detErr *DetectionError
	assert.False(t, errors.As(err, &detErr), "dimension mismatch is internal, not a detection failure")
}

func TestEmbedFaceSurfacesServiceRejection(t *testing.T) {
	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "image too blurry", http.StatusUnprocessableEntity)
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	_, err := client.EmbedFace(context.Background(), []byte("fake-image"))

	var detErr *DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Contains(t, detErr.Reason, "blurry")
}

func TestHealthcheck(t *testing.T) {
	healthy := true
	srv := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" && healthy {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := NewHTTPClient(srv.URL, 4, zap.NewNop())
	require.NoError(t, client.Healthcheck(context.Background()))

	healthy = false
	assert.Error(t, client.Healthcheck(context.Background()))
}
