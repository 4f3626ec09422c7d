// Package matching identifies a book from a photo of its cover.
//
// A query photo is rotated to the four axis-aligned orientations, each
// rotation is embedded and scored against every registered cover embedding,
// and the best score together with its gap to the runner-up is turned into a
// confidence tier. The tier decides whether the match is accepted, needs
// confirmation, or the book is reported as unknown.
package matching

import "fmt"

// Style selects the scoring formula and threshold profile used for a query.
type Style int

const (
	// Standard covers are scored with plain cosine similarity.
	Standard Style = iota
	// Cartoon covers (flat, saturated colors) are scored with a fused
	// cosine + inverse euclidean distance score and stricter thresholds.
	Cartoon
)

func (s Style) String() string {
	switch s {
	case Standard:
		return "standard"
	case Cartoon:
		return "cartoon"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Thresholds is one row of the confidence threshold table.
type Thresholds struct {
	High   float64 `json:"high" yaml:"high"`
	Low    float64 `json:"low" yaml:"low"`
	MinGap float64 `json:"min_gap" yaml:"min_gap"`
}

// Tuned values. Keep them exactly as they are unless the acceptance behaviour
// is deliberately being changed.
const (
	StandardHighThreshold = 0.70
	StandardLowThreshold  = 0.55
	StandardMinGap        = 0.08

	CartoonHighThreshold = 0.75
	CartoonLowThreshold  = 0.60
	CartoonMinGap        = 0.12

	// CartoonVarianceThreshold is compared against the variance of the three
	// channel means, in 0-255 units.
	CartoonVarianceThreshold = 500.0

	CartoonCosineWeight   = 0.7
	CartoonDistanceWeight = 0.3

	// DefaultDimension is the embedding size of CLIP ViT-L/14.
	DefaultDimension = 768
)

// Config is the immutable matching configuration handed to an Engine.
type Config struct {
	// Dimension is the expected embedding length. Zero disables the check.
	Dimension int

	Standard Thresholds
	Cartoon  Thresholds

	CartoonVarianceThreshold float64
	CosineWeight             float64
	DistanceWeight           float64

	// ParallelRotations embeds the four rotations concurrently.
	ParallelRotations bool
}

// DefaultConfig returns the tuned production configuration.
func DefaultConfig() Config {
	return Config{
		Dimension: DefaultDimension,
		Standard: Thresholds{
			High:   StandardHighThreshold,
			Low:    StandardLowThreshold,
			MinGap: StandardMinGap,
		},
		Cartoon: Thresholds{
			High:   CartoonHighThreshold,
			Low:    CartoonLowThreshold,
			MinGap: CartoonMinGap,
		},
		CartoonVarianceThreshold: CartoonVarianceThreshold,
		CosineWeight:             CartoonCosineWeight,
		DistanceWeight:           CartoonDistanceWeight,
	}
}

// WithDimension returns a copy of c expecting embeddings of length d.
func (c Config) WithDimension(d int) Config {
	c.Dimension = d
	return c
}

// WithParallelRotations returns a copy of c with rotation embedding
// parallelism switched on or off.
func (c Config) WithParallelRotations(parallel bool) Config {
	c.ParallelRotations = parallel
	return c
}

// ThresholdsFor returns the threshold row for a style.
func (c Config) ThresholdsFor(style Style) Thresholds {
	if style == Cartoon {
		return c.Cartoon
	}
	return c.Standard
}
