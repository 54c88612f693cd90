// Package recognition implements identity matching: cosine distance between
// face embeddings, the distance-to-confidence mapping, the nearest-identity
// matcher, and the per-photo recognizer that ties them to the ledger.
package recognition

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned when two embeddings of different length
// are compared. Embeddings are only comparable when produced by the same
// model, so a mismatch always indicates misuse.
var ErrDimensionMismatch = errors.New("embedding dimensions do not match")

// denomEpsilon keeps the cosine denominator non-zero for degenerate
// (all-zero) vectors.
const denomEpsilon = 1e-12

// thresholdEpsilon keeps the confidence mapping defined for a zero threshold.
const thresholdEpsilon = 1e-6

// CosineDistance computes 1 - cosine similarity between two embeddings.
// 0 means identical direction, lower is more similar. The range is [0, 2]
// but embeddings of the same model family land near [0, 1].
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)+denomEpsilon), nil
}

// Confidence maps a cosine distance to a [0, 1] display score: 1.0 at
// distance 0, decaying linearly, 0 once the distance reaches the threshold.
// It is a monotonic proxy for display, not a calibrated probability; the
// exact shape is kept for compatibility with historically displayed values.
func Confidence(distance, threshold float64) float64 {
	conf := 1 - distance/(threshold+thresholdEpsilon)
	return math.Min(1, math.Max(0, conf))
}
