package matching

import (
	"math"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// ScoreFunc scores a query embedding against a candidate embedding.
// Higher is more similar.
type ScoreFunc func(query, candidate models.Embedding) float64

// Scorer returns the scoring function for a style.
func (c Config) Scorer(style Style) ScoreFunc {
	if style == Cartoon {
		cosineWeight, distanceWeight := c.CosineWeight, c.DistanceWeight
		return func(query, candidate models.Embedding) float64 {
			return FusedScore(query, candidate, cosineWeight, distanceWeight)
		}
	}
	return CosineSimilarity
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// A zero vector on either side, or vectors of different length, score 0.
// Accumulation happens in float64 so a vector scored against itself is
// exactly 1.
func CosineSimilarity(a, b models.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	denom := math.Sqrt(normA * normB)
	if math.IsInf(denom, 0) {
		denom = math.Sqrt(normA) * math.Sqrt(normB)
	}

	sim := dot / denom
	switch {
	case math.IsNaN(sim):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// EuclideanDistance returns the L2 distance between a and b.
// Vectors of different length are treated as infinitely far apart.
func EuclideanDistance(a, b models.Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// FusedScore combines direction (cosine) with magnitude sensitivity
// (inverse euclidean distance), which separates flat-color covers better
// than cosine alone.
func FusedScore(a, b models.Embedding, cosineWeight, distanceWeight float64) float64 {
	cos := CosineSimilarity(a, b)
	inv := 1 / (1 + EuclideanDistance(a, b))
	return cosineWeight*cos + distanceWeight*inv
}
