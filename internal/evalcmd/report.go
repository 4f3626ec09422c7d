package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/results"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved evaluation run",
		Example: `  # Summary plus every wrong decision
  covermatch eval report --results evals/clip-ViT-L_14-2025-01-02_03-04-05.yaml

  # One CSV row per photo
  covermatch eval report --results evals/run.yaml --format csv > run.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to an evaluation YAML file (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json or csv)")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

func executeReport(w io.Writer, resultsPath, format string) error {
	spec, err := results.LoadYAML(resultsPath)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		return printTextReport(w, spec)
	case "json":
		return printJSONReport(w, spec)
	case "csv":
		return printCSVReport(w, spec)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, spec *results.EvalSpec) error {
	if spec.Summary != nil {
		spec.Summary.PrintSummary(w)
	}

	fmt.Fprintln(w, "\nWrong decisions:")
	fmt.Fprintln(w, strings.Repeat("=", 70))

	wrong := 0
	for i, r := range spec.Results {
		if r.Correct() {
			continue
		}
		wrong++

		fmt.Fprintf(w, "\n[%d] %s\n", i+1, r.ImagePath)
		if r.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "  Expected: %s  Matched: %s\n", bookLabel(r.ExpectedBookID), bookLabel(r.MatchedBookID))
		fmt.Fprintf(w, "  Kind: %s  Tier: %s  Style: %s\n", r.Kind, r.Tier, r.Style)
		fmt.Fprintf(w, "  Score: %.4f  Gap: %.4f  Rotation: %d\n", r.Score, r.Gap, r.Rotation)
		if r.Note != "" {
			fmt.Fprintf(w, "  Note: %s\n", r.Note)
		}
	}

	if wrong == 0 {
		fmt.Fprintln(w, "none")
	}
	return nil
}

func printJSONReport(w io.Writer, spec *results.EvalSpec) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(w io.Writer, spec *results.EvalSpec) error {
	writer := csv.NewWriter(w)

	header := []string{"image_path", "expected_book_id", "matched_book_id", "kind", "tier", "style", "score", "gap", "rotation", "correct", "processing_ms", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range spec.Results {
		row := []string{
			r.ImagePath,
			strconv.FormatInt(int64(r.ExpectedBookID), 10),
			strconv.FormatInt(int64(r.MatchedBookID), 10),
			r.Kind,
			r.Tier,
			r.Style,
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.4f", r.Gap),
			strconv.Itoa(r.Rotation),
			strconv.FormatBool(r.Correct()),
			strconv.FormatInt(r.ProcessingTime.Milliseconds(), 10),
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func bookLabel(id models.BookID) string {
	if id == 0 {
		return "none"
	}
	return strconv.FormatInt(int64(id), 10)
}
