package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var book models.NewBook

	cmd := &cobra.Command{
		Use:   "register <cover>",
		Short: "Register a book with its cover image",
		Example: `  covermatch register ./cover.jpg --title "Green Eggs and Ham" --isbn 9780394800165`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read cover: %w", err)
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			registered, err := a.Service.Register(cmd.Context(), book, data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered book %d: %s\n", registered.ID, registered.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&book.Title, "title", "", "Book title (required)")
	cmd.Flags().StringVar(&book.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&book.URL, "url", "", "Link to the book record")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}
