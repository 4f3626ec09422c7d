package evalcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/dataset"
)

// NewLabelCmd creates the label command
func NewLabelCmd() *cobra.Command {
	var dir string
	var output string

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Build a labeled dataset from a directory of photos",
		Long: `Build a dataset file from photos sorted into one directory per book.

Photos under <dir>/<book_id>/ are labeled with that catalogue ID and photos
under <dir>/unknown/ are labeled as books outside the catalogue. The dataset
is written next to the photos so image paths stay relative.`,
		Example: `  covermatch eval label --dir ./photos
  covermatch eval label --dir ./photos --output labels.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			photos, err := dataset.ScanDir(dir)
			if err != nil {
				return err
			}
			if len(photos) == 0 {
				return fmt.Errorf("no photos found under %s", dir)
			}

			path := dataset.DatasetPath(dir, output)
			if err := dataset.Write(path, photos); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Labeled %d photos into %s\n", len(photos), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of photos sorted by book id (required)")
	cmd.Flags().StringVar(&output, "output", "labels.parquet", "Dataset file name inside --dir (.parquet or .jsonl)")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}
