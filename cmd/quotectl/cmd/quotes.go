package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
)

func newAddCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <text>...",
		Short: "Add a quote",
		Long: `Add a quote to the local store. Remaining arguments are joined
into the quote text.

Examples:
  quotectl add Motivation "Just keep going."
  quotectl add Life Be here now`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := s.components.Store.Add(cmd.Context(), strings.Join(args[1:], " "), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", q.ID)

			return nil
		},
	}
}

func newListCmd(s *session) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := category
			if filter == "" {
				filter = domain.CategoryAll
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tTEXT")

			var n int
			for _, q := range s.components.Store.All() {
				if !q.MatchesCategory(filter) {
					continue
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\n", q.ID, q.Category, q.Text)
				n++
			}

			if n == 0 {
				return fmt.Errorf("%w category %q", errNoQuotes, filter)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")

	return cmd
}

func newRandomCmd(s *session) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Long: `Show a random quote. Without --category the last used filter
is applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store := s.components.Store

			filter := category
			if filter == "" {
				saved, err := store.SelectedCategory(ctx)
				if err != nil {
					return err
				}

				filter = saved
			}

			q, err := store.PickRandom(ctx, filter)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%q\n  (%s)\n", q.Text, q.Category)

			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category filter, or "+domain.CategoryAll)

	return cmd
}

func newCategoriesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range s.components.Store.Categories() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}

			return nil
		},
	}
}

func newImportCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import quotes from a JSON file",
		Long: `Import a JSON array of {text, category} objects. Quotes whose
text and category already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			result, err := s.components.Store.ImportJSON(cmd.Context(), f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d, invalid %d\n",
				result.Imported, result.Skipped, result.Invalid)

			return nil
		},
	}
}

func newExportCmd(s *session) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quotes as JSON",
		Long: `Export every quote as a JSON array. Use --out - for stdout, or
a directory to write a timestamped file into it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := s.components.Store

			if out == "-" {
				return store.Export(cmd.OutOrStdout())
			}

			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, app.ExportFileName(time.Now()))
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}

			if err := store.Export(f); err != nil {
				_ = f.Close()
				return err
			}

			if err := f.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d quotes to %s\n", store.Len(), path)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", ".", "output file, directory, or - for stdout")

	return cmd
}

func newResetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all quotes and restore the default set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.components.Store.ClearAndReset(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "restored %d default quotes\n", s.components.Store.Len())

			return nil
		},
	}
}

// printQuotes writes one line per quote.
func printQuotes(w io.Writer, quotes []domain.Quote) {
	for _, q := range quotes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", q.ID, q.Category, q.Text)
	}
}
