package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

func newBooksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the registered books",
	}

	cmd.AddCommand(newBooksListCmd(opts))
	cmd.AddCommand(newBooksDeleteCmd(opts))
	cmd.AddCommand(newBooksReembedCmd(opts))

	return cmd
}

func newBooksListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered books, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			books, err := a.Repo.ListBooks(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(books)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tISBN\tEMBEDDING\tCREATED")
			for _, b := range books {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", b.ID, b.Title, b.ISBN, b.HasEmbedding, b.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func newBooksDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book, its embedding and its cover file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			book, err := a.Service.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted book %d: %s\n", book.ID, book.Title)
			return nil
		},
	}
}

func newBooksReembedCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reembed [id...]",
		Short: "Recompute cover embeddings, e.g. after changing the embedding model",
		Example: `  covermatch books reembed 12 13
  covermatch books reembed --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("give book ids or --all")
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var ids []models.BookID
			if all {
				books, err := a.Repo.ListBooks(cmd.Context())
				if err != nil {
					return err
				}
				for _, b := range books {
					ids = append(ids, b.ID)
				}
			} else {
				for _, arg := range args {
					id, err := parseBookID(arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
			}

			failed := 0
			for _, id := range ids {
				if err := a.Service.Reembed(cmd.Context(), id); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "book %d: %v\n", id, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Re-embedded %d of %d books\n", len(ids)-failed, len(ids))
			if failed > 0 {
				return fmt.Errorf("%d books failed to re-embed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Re-embed every registered book")

	return cmd
}

func parseBookID(s string) (models.BookID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id: %q", s)
	}
	return models.BookID(id), nil
}
