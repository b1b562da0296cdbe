// Package embedder talks to the face-embedding model service. The model is a
// black box: encoded image in, fixed-dimension feature vector out.
package embedder

import (
	"context"
	"fmt"
)

// Embedding is a fixed-length face feature vector produced by the model.
type Embedding []float32

// Client exposes the subset of the model service used by the auth flows.
// The service is probed once at startup; a cold or unreachable model aborts
// boot rather than failing lazily per request.
type Client interface {
	// EmbedFace extracts the embedding of the single face in the image.
	// A *DetectionError reports a client-fixable problem (no face, more than
	// one face); any other error is internal.
	EmbedFace(ctx context.Context, imageBytes []byte) (Embedding, error)

	// Healthcheck verifies the model service is up and warm.
	Healthcheck(ctx context.Context) error

	// Dim is the embedding dimensionality the service is expected to produce.
	Dim() int
}

// DetectionError reports that the model could not produce exactly one usable
// face embedding. Faces is the number of faces the detector found.
type DetectionError struct {
	Faces  int
	Reason string
}

// Error implements the error interface.
func (e *DetectionError) Error() string {
	return "face detection failed: " + e.Reason
}

// NewNoFaceError builds the detection failure for an image with no face.
func NewNoFaceError() *DetectionError {
	return &DetectionError{Faces: 0, Reason: "no face detected in image"}
}

// NewMultipleFacesError builds the detection failure for an image with more
// than one face. Exactly one face is required so that a bystander can never
// become the enrolled identity.
func NewMultipleFacesError(count int) *DetectionError {
	return &DetectionError{
		Faces:  count,
		Reason: fmt.Sprintf("%d faces detected, exactly one is required", count),
	}
}
