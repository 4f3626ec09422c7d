package matching

import (
	"math"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// Kind is the response contract of an identification.
type Kind string

const (
	KindConfirmed Kind = "confirmed"
	KindUncertain Kind = "uncertain"
	KindUnknown   Kind = "unknown"
)

const comparisonMethod = "clip-rotation"

// Match describes a confirmed or uncertain match.
type Match struct {
	ID                models.BookID `json:"id"`
	Title             string        `json:"title"`
	ISBN              string        `json:"isbn"`
	URL               string        `json:"url"`
	SimilarityScore   float64       `json:"similarity_score"`
	RotationAngle     int           `json:"rotation_angle"`
	Confidence        string        `json:"confidence"`
	Style             string        `json:"style"`
	CartoonDetected   bool          `json:"cartoon_detected"`
	ComparisonMethod  string        `json:"comparison_method"`
	ScoreGap          float64       `json:"score_gap"`
	NeedsConfirmation bool          `json:"needs_confirmation,omitempty"`
	Warning           string        `json:"warning,omitempty"`
	GapRequired       *float64      `json:"gap_required,omitempty"`
}

// UnknownBook describes a photo that matched nothing well enough.
type UnknownBook struct {
	// BestMatchScore is nil when there were no candidates to score.
	BestMatchScore  *float64 `json:"best_match_score,omitempty"`
	Suggestion      string   `json:"suggestion"`
	ActionNeeded    string   `json:"action_needed"`
	Style           string   `json:"style"`
	CartoonDetected bool     `json:"cartoon_detected"`
}

// Result is the tagged response of an identification. Exactly one of Match
// and Unknown is set.
type Result struct {
	Kind    Kind         `json:"kind"`
	Match   *Match       `json:"match,omitempty"`
	Unknown *UnknownBook `json:"unknown,omitempty"`

	Outcome Outcome `json:"-"`
}

// Percent converts a score to a percentage rounded to two decimals.
func Percent(x float64) float64 {
	return math.Round(x*10000) / 100
}

// BuildResult shapes an outcome into its response contract. book must be the
// metadata of out.BookID whenever out.HasMatch is true.
func BuildResult(out Outcome, book *models.Book) Result {
	cartoon := out.Style == Cartoon

	if out.Tier == Unknown || !out.HasMatch || book == nil {
		unknown := &UnknownBook{
			Suggestion:      "This may be a new book that is not in the catalogue",
			ActionNeeded:    "add_new_book",
			Style:           out.Style.String(),
			CartoonDetected: cartoon,
		}
		if cartoon {
			unknown.Suggestion += " (cartoon covers are matched more strictly)"
		}
		if out.HasScore {
			score := Percent(out.Score)
			unknown.BestMatchScore = &score
		}
		return Result{Kind: KindUnknown, Unknown: unknown, Outcome: out}
	}

	m := &Match{
		ID:               book.ID,
		Title:            book.Title,
		ISBN:             book.ISBN,
		URL:              book.URL,
		SimilarityScore:  Percent(out.Score),
		RotationAngle:    out.Rotation,
		Confidence:       out.Tier.String(),
		Style:            out.Style.String(),
		CartoonDetected:  cartoon,
		ComparisonMethod: comparisonMethod,
		ScoreGap:         Percent(out.Gap),
	}
	if cartoon {
		m.ComparisonMethod += "-cartoon"
	}

	if out.Tier == LowConfidenceUncertain {
		required := Percent(out.Thresholds.MinGap)
		m.NeedsConfirmation = true
		m.GapRequired = &required
		m.Warning = "Low confidence match, please confirm this is the right book"
		if cartoon {
			m.Warning += " (cartoon covers are easily confused)"
		}
		return Result{Kind: KindUncertain, Match: m, Outcome: out}
	}

	return Result{Kind: KindConfirmed, Match: m, Outcome: out}
}
