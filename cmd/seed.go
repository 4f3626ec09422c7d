package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/images"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var isbnFile string

	cmd := &cobra.Command{
		Use:   "seed [isbn...]",
		Short: "Register books from Open Library by ISBN",
		Long: `Fetch the title and large cover of each ISBN from Open Library and
register the book. ISBNs without a real cover are skipped.`,
		Example: `  covermatch seed 9780394800165 9780064400558
  covermatch seed --file isbns.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			isbns := args
			if isbnFile != "" {
				fromFile, err := readISBNs(isbnFile)
				if err != nil {
					return err
				}
				isbns = append(isbns, fromFile...)
			}
			if len(isbns) == 0 {
				return fmt.Errorf("give ISBNs or --file")
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fetcher := images.NewFetcher()
			registered := 0
			for _, isbn := range isbns {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				seed, err := fetcher.FetchSeed(cmd.Context(), isbn)
				if err != nil {
					slog.Warn("Skipping ISBN", "isbn", isbn, "err", err)
					continue
				}

				book, err := a.Service.Register(cmd.Context(), models.NewBook{
					Title: seed.Title,
					ISBN:  seed.ISBN,
					URL:   seed.URL,
				}, seed.Cover)
				if err != nil {
					slog.Warn("Failed to register book", "isbn", isbn, "err", err)
					continue
				}
				registered++
				fmt.Fprintf(cmd.OutOrStdout(), "Registered book %d: %s (%s)\n", book.ID, book.Title, book.ISBN)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d of %d ISBNs\n", registered, len(isbns))
			return nil
		},
	}

	cmd.Flags().StringVar(&isbnFile, "file", "", "File with one ISBN per line")

	return cmd
}

func readISBNs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ISBN file: %w", err)
	}
	defer f.Close()

	var isbns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isbns = append(isbns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ISBN file: %w", err)
	}
	return isbns, nil
}
