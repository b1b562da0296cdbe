// Package facematch implements the distance policy that turns two face
// embeddings into an accept/reject verdict.
package facematch

import (
	"errors"
	"math"
)

// ErrDegenerate reports embeddings that cannot be meaningfully compared:
// mismatched lengths, empty vectors, or a zero vector whose cosine distance
// is undefined. Callers treat it as "not verified", never as a crash.
var ErrDegenerate = errors.New("facematch: degenerate embedding input")

// Result is the outcome of comparing two embeddings against a threshold.
type Result struct {
	Distance float64
	Verified bool
}

// CosineDistance returns 1 minus the cosine similarity of a and b, in [0, 2].
// Lower means more similar; identical directions give 0.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDegenerate
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerate
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

// Verify applies the decision rule: verified iff distance <= threshold.
// Degenerate inputs yield an unverified Result alongside ErrDegenerate so the
// caller can log the anomaly without branching on arithmetic details.
func Verify(candidate, reference []float32, threshold float64) (Result, error) {
	distance, err := CosineDistance(candidate, reference)
	if err != nil {
		return Result{Distance: math.Inf(1)}, err
	}
	return Result{Distance: distance, Verified: distance <= threshold}, nil
}
