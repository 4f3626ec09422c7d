package evalcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/covermatch/internal/app"
	"github.com/lehigh-university-libraries/covermatch/internal/eval/dataset"
	"github.com/lehigh-university-libraries/covermatch/internal/eval/metrics"
	"github.com/lehigh-university-libraries/covermatch/internal/eval/results"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
)

// AppLoader opens the configured catalogue for a command.
type AppLoader func(ctx context.Context) (*app.App, error)

// Identifier runs one identification.
type Identifier interface {
	Identify(ctx context.Context, data []byte) (matching.Result, error)
}

// NewRunCmd creates the run command
func NewRunCmd(load AppLoader) *cobra.Command {
	var datasetPath string
	var outputDir string
	var sampleSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Identify every photo in a labeled dataset and score the decisions",
		Long: `Run the identification engine against a labeled photo dataset.

Each photo is identified against the configured catalogue. Confirmed matches,
uncertain matches and unknown books are compared with the labels, and the
summary is printed and saved as YAML under the output directory.`,
		Example: `  # Evaluate every photo with the default provider
  covermatch eval run --dataset ./photos/labels.parquet

  # Evaluate 50 photos, 8 at a time
  covermatch eval run --dataset ./photos/labels.jsonl --sample 50 --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			loader := dataset.NewLoader(datasetPath)
			photos, err := loader.LoadSample(sampleSize)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			slog.Info("Dataset loaded", "photos", len(photos), "path", datasetPath)

			info := a.ProviderInfo()
			evals := ProcessPhotos(ctx, a.Service, loader.Dir(), photos, concurrency)
			agg := metrics.AggregateEvaluationResults(evals, info.Name, info.Model)
			agg.PrintSummary(cmd.OutOrStdout())

			mc := a.Service.Engine().Config()
			path, err := results.SaveToYAML(outputDir, results.EvalConfig{
				Provider:          info.Name,
				Model:             info.Model,
				Dimension:         mc.Dimension,
				DatasetPath:       datasetPath,
				SampleSize:        len(photos),
				Concurrency:       concurrency,
				StandardHigh:      mc.Standard.High,
				StandardLow:       mc.Standard.Low,
				StandardMinGap:    mc.Standard.MinGap,
				CartoonHigh:       mc.Cartoon.High,
				CartoonLow:        mc.Cartoon.Low,
				CartoonMinGap:     mc.Cartoon.MinGap,
				VarianceThreshold: mc.CartoonVarianceThreshold,
			}, agg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nEvaluation results saved to: %s\n", path)
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet or jsonl dataset file (required)")
	cmd.Flags().StringVar(&outputDir, "output", results.DefaultDir, "Directory for the YAML results file")
	cmd.Flags().IntVar(&sampleSize, "sample", 0, "Number of photos to evaluate (0 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of photos identified at once")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// ProcessPhotos identifies each photo with at most concurrency requests in
// flight. Results keep the order of photos. Photos not started before ctx
// is cancelled are recorded as failures.
func ProcessPhotos(ctx context.Context, svc Identifier, baseDir string, photos []dataset.LabeledPhoto, concurrency int) []metrics.EvaluationResult {
	if concurrency < 1 {
		concurrency = 1
	}

	out := make([]metrics.EvaluationResult, len(photos))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, photo := range photos {
		g.Go(func() error {
			slog.Debug("Processing photo", "path", photo.ImagePath, "progress", fmt.Sprintf("%d/%d", i+1, len(photos)))
			out[i] = processPhoto(ctx, svc, baseDir, photo)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func processPhoto(ctx context.Context, svc Identifier, baseDir string, photo dataset.LabeledPhoto) metrics.EvaluationResult {
	if err := ctx.Err(); err != nil {
		return metrics.NewEvaluationResult(photo, matching.Result{}, 0, err)
	}

	data, err := readPhoto(photo.ResolvePath(baseDir))
	if err != nil {
		return metrics.NewEvaluationResult(photo, matching.Result{}, 0, err)
	}

	start := time.Now()
	res, err := svc.Identify(ctx, data)
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("Identification failed", "path", photo.ImagePath, "err", err)
	}
	return metrics.NewEvaluationResult(photo, res, elapsed, err)
}

func readPhoto(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}
