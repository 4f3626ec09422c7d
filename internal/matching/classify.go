package matching

import (
	"fmt"
	"sort"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// Tier is the confidence class of a match outcome.
type Tier int

const (
	Unknown Tier = iota
	LowConfidenceUncertain
	MediumConfidence
	HighConfidence
)

func (t Tier) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case LowConfidenceUncertain:
		return "low"
	case MediumConfidence:
		return "medium"
	case HighConfidence:
		return "high"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Outcome is the classified result of one identification request.
type Outcome struct {
	Tier     Tier
	BookID   models.BookID
	HasMatch bool

	// Score is the best score found. HasScore is false when the store was
	// empty and no score exists.
	Score    float64
	HasScore bool

	Rotation   int
	Gap        float64
	Style      Style
	Thresholds Thresholds

	// Candidates is the number of records the scan ran against.
	Candidates int
}

// ScoreGap returns the difference between the two highest scores, or 0 when
// fewer than two scores exist. The input is not modified.
func ScoreGap(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	return sorted[0] - sorted[1]
}

// Tierize maps a best score and gap onto a confidence tier.
func Tierize(score, gap float64, th Thresholds) Tier {
	switch {
	case score >= th.High && gap >= th.MinGap:
		return HighConfidence
	case score >= th.Low && gap >= th.MinGap:
		return MediumConfidence
	case score >= th.Low:
		return LowConfidenceUncertain
	default:
		return Unknown
	}
}

// Classify turns a selection into an outcome.
//
// The gap is measured across every rotation x candidate score, not only the
// winner's own rotations, so a second rotation of the same book counts as a
// runner-up. An empty selection is Unknown without consulting the thresholds.
func Classify(sel Selection, style Style, th Thresholds) Outcome {
	out := Outcome{
		Tier:       Unknown,
		Style:      style,
		Thresholds: th,
	}

	if !sel.HasBest || len(sel.Scores) == 0 {
		return out
	}

	out.Score = sel.Best.Score
	out.HasScore = true
	out.Rotation = sel.Best.Rotation
	out.Gap = ScoreGap(sel.Scores)
	out.Tier = Tierize(out.Score, out.Gap, th)

	if out.Tier != Unknown {
		out.BookID = sel.Best.ID
		out.HasMatch = true
	}

	return out
}
