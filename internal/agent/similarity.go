package agent

import "math"

// Cosine returns the cosine similarity of two vectors. Nil, empty, or
// length-mismatched inputs yield 0.0, so comparisons against absent
// embeddings silently fail the acceptance threshold instead of erroring.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
