package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

func randomEmbedding(r *rand.Rand, dim int) models.Embedding {
	v := make(models.Embedding, dim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.Embedding
		expected float64
	}{
		{name: "identical unit vectors", a: models.Embedding{1, 0, 0}, b: models.Embedding{1, 0, 0}, expected: 1},
		{name: "orthogonal", a: models.Embedding{1, 0, 0}, b: models.Embedding{0, 1, 0}, expected: 0},
		{name: "opposite", a: models.Embedding{1, 2, 3}, b: models.Embedding{-1, -2, -3}, expected: -1},
		{name: "scaled copy", a: models.Embedding{1, 2, 3}, b: models.Embedding{2, 4, 6}, expected: 1},
		{name: "zero query", a: models.Embedding{0, 0, 0}, b: models.Embedding{1, 2, 3}, expected: 0},
		{name: "zero candidate", a: models.Embedding{1, 2, 3}, b: models.Embedding{0, 0, 0}, expected: 0},
		{name: "length mismatch", a: models.Embedding{1, 2}, b: models.Embedding{1, 2, 3}, expected: 0},
		{name: "empty", a: models.Embedding{}, b: models.Embedding{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestCosineSelfSimilarityIsExactlyOne(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		v := randomEmbedding(r, DefaultDimension)
		assert.Equal(t, 1.0, CosineSimilarity(v, v), "vector %d", i)
	}
}

func TestCosineStaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := randomEmbedding(r, 32)
		b := randomEmbedding(r, 32)
		got := CosineSimilarity(a, b)
		assert.GreaterOrEqual(t, got, -1.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, EuclideanDistance(models.Embedding{0, 0}, models.Embedding{3, 4}), 1e-9)
	assert.Equal(t, 0.0, EuclideanDistance(models.Embedding{1, 2}, models.Embedding{1, 2}))
	assert.True(t, math.IsInf(EuclideanDistance(models.Embedding{1}, models.Embedding{1, 2}), 1))
}

func TestFusedScore(t *testing.T) {
	v := models.Embedding{1, 2, 3}
	assert.InDelta(t, 1.0, FusedScore(v, v, 0.7, 0.3), 1e-12)

	// cos = 0, distance = sqrt(2)
	got := FusedScore(models.Embedding{1, 0}, models.Embedding{0, 1}, 0.7, 0.3)
	assert.InDelta(t, 0.3/(1+math.Sqrt2), got, 1e-9)
}

func TestScorerByStyle(t *testing.T) {
	cfg := DefaultConfig()
	a := models.Embedding{1, 0}
	b := models.Embedding{0, 1}

	assert.Equal(t, 0.0, cfg.Scorer(Standard)(a, b))
	assert.InDelta(t, 0.3/(1+math.Sqrt2), cfg.Scorer(Cartoon)(a, b), 1e-9)
}
