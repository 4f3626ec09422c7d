package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/dataset"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// EvaluationResult represents the outcome for a single labeled photo
type EvaluationResult struct {
	ImagePath      string        `json:"image_path" yaml:"image_path"`
	Note           string        `json:"note,omitempty" yaml:"note,omitempty"`
	ExpectedBookID models.BookID `json:"expected_book_id" yaml:"expected_book_id"`

	Kind          string        `json:"kind,omitempty" yaml:"kind,omitempty"`
	Tier          string        `json:"tier,omitempty" yaml:"tier,omitempty"`
	Style         string        `json:"style,omitempty" yaml:"style,omitempty"`
	MatchedBookID models.BookID `json:"matched_book_id,omitempty" yaml:"matched_book_id,omitempty"`
	Score         float64       `json:"score" yaml:"score"`
	HasScore      bool          `json:"has_score" yaml:"has_score"`
	Gap           float64       `json:"gap" yaml:"gap"`
	Rotation      int           `json:"rotation" yaml:"rotation"`

	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
	Error          string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEvaluationResult records the engine outcome for photo. A non-nil err
// marks the evaluation as failed.
func NewEvaluationResult(photo dataset.LabeledPhoto, res matching.Result, elapsed time.Duration, err error) EvaluationResult {
	r := EvaluationResult{
		ImagePath:      photo.ImagePath,
		Note:           photo.Note,
		ExpectedBookID: photo.Expected(),
		ProcessingTime: elapsed,
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}

	out := res.Outcome
	r.Kind = string(res.Kind)
	r.Tier = out.Tier.String()
	r.Style = out.Style.String()
	r.Score = out.Score
	r.HasScore = out.HasScore
	r.Gap = out.Gap
	r.Rotation = out.Rotation
	if out.HasMatch {
		r.MatchedBookID = out.BookID
	}
	return r
}

// Accepted reports whether the engine confirmed a match without asking the user.
func (r EvaluationResult) Accepted() bool {
	return r.Kind == string(matching.KindConfirmed)
}

// Correct reports whether the engine answered the photo correctly: the right
// book confirmed, or no confirmation for a book outside the catalogue.
func (r EvaluationResult) Correct() bool {
	if r.Error != "" {
		return false
	}
	if r.ExpectedBookID > 0 {
		return r.Accepted() && r.MatchedBookID == r.ExpectedBookID
	}
	return !r.Accepted()
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int `json:"total_records" yaml:"total_records"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	FailureCount int `json:"failure_count" yaml:"failure_count"`

	TierCounts  map[string]int `json:"tier_counts" yaml:"tier_counts"`
	StyleCounts map[string]int `json:"style_counts" yaml:"style_counts"`

	// CorrectAccepts confirmed the labeled book.
	CorrectAccepts int `json:"correct_accepts" yaml:"correct_accepts"`
	// IncorrectAccepts confirmed a wrong book, or any book for an
	// uncatalogued photo.
	IncorrectAccepts int `json:"incorrect_accepts" yaml:"incorrect_accepts"`
	// CorrectRejections did not confirm anything for an uncatalogued photo.
	CorrectRejections int `json:"correct_rejections" yaml:"correct_rejections"`
	// MissedMatches did not confirm a catalogued book.
	MissedMatches int `json:"missed_matches" yaml:"missed_matches"`
	// UncertainCorrect were left for the user to confirm but named the right book.
	UncertainCorrect int `json:"uncertain_correct" yaml:"uncertain_correct"`

	Accuracy        float64 `json:"accuracy" yaml:"accuracy"`
	FalseAcceptRate float64 `json:"false_accept_rate" yaml:"false_accept_rate"`
	MeanScore       float64 `json:"mean_score" yaml:"mean_score"`
	MeanGap         float64 `json:"mean_gap" yaml:"mean_gap"`

	AverageProcessingTime time.Duration `json:"average_processing_time" yaml:"average_processing_time"`
	TotalProcessingTime   time.Duration `json:"total_processing_time" yaml:"total_processing_time"`

	Results []EvaluationResult `json:"-" yaml:"-"`

	EvaluationDate time.Time `json:"evaluation_date" yaml:"evaluation_date"`
	Provider       string    `json:"provider" yaml:"provider"`
	Model          string    `json:"model" yaml:"model"`
	SampleSize     int       `json:"sample_size" yaml:"sample_size"`
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		TierCounts:     map[string]int{},
		StyleCounts:    map[string]int{},
		Results:        results,
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
		SampleSize:     len(results),
	}

	var totalDuration, successDuration time.Duration
	var scores, gaps []float64
	accepted := 0

	for _, result := range results {
		totalDuration += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime
		agg.TierCounts[result.Tier]++
		agg.StyleCounts[result.Style]++

		if result.HasScore {
			scores = append(scores, result.Score)
			gaps = append(gaps, result.Gap)
		}

		inCatalogue := result.ExpectedBookID > 0
		switch {
		case result.Accepted():
			accepted++
			if inCatalogue && result.MatchedBookID == result.ExpectedBookID {
				agg.CorrectAccepts++
			} else {
				agg.IncorrectAccepts++
			}
		case inCatalogue:
			agg.MissedMatches++
			if result.MatchedBookID == result.ExpectedBookID && result.Kind == string(matching.KindUncertain) {
				agg.UncertainCorrect++
			}
		default:
			agg.CorrectRejections++
		}
	}

	if agg.SuccessCount > 0 {
		agg.Accuracy = float64(agg.CorrectAccepts+agg.CorrectRejections) / float64(agg.SuccessCount)
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}
	if accepted > 0 {
		agg.FalseAcceptRate = float64(agg.IncorrectAccepts) / float64(accepted)
	}
	agg.MeanScore = calculateAverage(scores)
	agg.MeanGap = calculateAverage(gaps)
	agg.TotalProcessingTime = totalDuration

	return agg
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}

// PrintSummary writes a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "COVER IDENTIFICATION EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider: %s\n", a.Provider)
	fmt.Fprintf(w, "Model: %s\n", a.Model)
	fmt.Fprintf(w, "Sample Size: %d photos\n", a.SampleSize)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROCESSING STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Photos: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", a.SuccessCount, percentOf(a.SuccessCount, a.TotalRecords))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", a.FailureCount, percentOf(a.FailureCount, a.TotalRecords))
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CONFIDENCE TIERS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	printCounts(w, a.TierCounts, a.SuccessCount)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "COVER STYLES")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	printCounts(w, a.StyleCounts, a.SuccessCount)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "DECISIONS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Correct Accepts: %d\n", a.CorrectAccepts)
	fmt.Fprintf(w, "Incorrect Accepts: %d\n", a.IncorrectAccepts)
	fmt.Fprintf(w, "Correct Rejections: %d\n", a.CorrectRejections)
	fmt.Fprintf(w, "Missed Matches: %d (%d named the right book as uncertain)\n", a.MissedMatches, a.UncertainCorrect)
	fmt.Fprintf(w, "Mean Score: %.4f\n", a.MeanScore)
	fmt.Fprintf(w, "Mean Gap: %.4f\n", a.MeanGap)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Accuracy: %.2f%% (%.3f)\n", a.Accuracy*100, a.Accuracy)
	fmt.Fprintf(w, "False Accept Rate: %.2f%% (%.3f)\n", a.FalseAcceptRate*100, a.FalseAcceptRate)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func printCounts(w io.Writer, counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %d (%.1f%%)\n", k+":", counts[k], percentOf(counts[k], total))
	}
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
