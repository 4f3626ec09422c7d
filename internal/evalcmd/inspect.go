package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/dataset"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var checkImages bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset records (useful for checking labels and photos)",
		Long: `Inspect records from a parquet or jsonl dataset file.

Each record shows the photo path, its label and note, and whether the photo
can be read and decoded.`,
		Example: `  # Inspect first 5 records interactively
  covermatch eval inspect --dataset ./labels.parquet --limit 5 --interactive

  # Inspect all records without decoding the photos
  covermatch eval inspect --dataset ./labels.jsonl --limit 0 --check-images=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return executeInspect(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), datasetPath, limit, interactive, checkImages)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet or jsonl dataset file (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&checkImages, "check-images", true, "Read and decode each photo")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func executeInspect(ctx context.Context, w io.Writer, in io.Reader, datasetPath string, limit int, interactive, checkImages bool) error {
	loader := dataset.NewLoader(datasetPath)

	records, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d records from %s\n", len(records), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(in)
	unreadable := 0

	for i, record := range records {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "RECORD %d/%d\n", i+1, len(records))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintf(w, "Image:          %s\n", record.ImagePath)
		if record.InCatalogue() {
			fmt.Fprintf(w, "Expected Book:  %d\n", record.ExpectedBookID)
		} else {
			fmt.Fprintln(w, "Expected Book:  none (not in catalogue)")
		}
		if record.Note != "" {
			fmt.Fprintf(w, "Note:           %s\n", record.Note)
		}

		if checkImages {
			status, ok := describePhoto(record.ResolvePath(loader.Dir()))
			if !ok {
				unreadable++
			}
			fmt.Fprintf(w, "Photo:          %s\n", status)
		}
		fmt.Fprintln(w)

		if interactive {
			fmt.Fprint(w, "Press Enter to continue to next record (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(w, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(w)
			}
		}
	}

	if checkImages && unreadable > 0 {
		fmt.Fprintf(w, "%d of %d photos could not be read or decoded\n", unreadable, len(records))
	}
	return nil
}

func describePhoto(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "missing: " + err.Error(), false
	}

	img, format, err := matching.DecodeImage(data)
	if err != nil {
		return "undecodable: " + err.Error(), false
	}

	b := img.Bounds()
	style := matching.DetectStyle(img, matching.CartoonVarianceThreshold)
	return fmt.Sprintf("%s %dx%d, %d bytes, %s style", format, b.Dx(), b.Dy(), len(data), style), true
}
