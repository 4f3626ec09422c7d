package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newIdentifyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <photo>",
		Short: "Identify the book on a cover photo",
		Example: `  covermatch identify ./photo.jpg
  covermatch identify ./photo.jpg --log-level debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.Identify(cmd.Context(), data)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(res)
		},
	}

	return cmd
}
