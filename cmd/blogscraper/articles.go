package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pevans/blogscraper/articles"
	"github.com/spf13/cobra"
)

func newArticlesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"a"},
		Short:   "Manage stored articles",
	}
	cmd.AddCommand(newArticlesListCmd(a), newArticlesShowCmd(a), newArticlesDeleteCmd(a))
	return cmd
}

func newArticlesListCmd(a *app) *cobra.Command {
	var filter articles.ListFilter
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored articles, latest first",
		Long: `List stored articles ordered by publication date, latest first.

Examples:
  blogscraper articles list                      # First page
  blogscraper articles list --page 2             # Second page
  blogscraper articles list --category Chatbots  # Only one category
  blogscraper articles list --json               # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			page, err := store.ListPaged(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), page)
			}
			printArticlesTable(cmd.OutOrStdout(), page)
			return nil
		},
	}

	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.PerPage, "per-page", articles.DefaultPerPage, "articles per page")
	cmd.Flags().StringVar(&filter.Category, "category", "", "only articles in this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newArticlesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			article, err := store.Get(cmd.Context(), ids[0])
			if errors.Is(err, articles.ErrArticleNotFound) {
				return fmt.Errorf("article %d not found", ids[0])
			}
			if err != nil {
				return err
			}

			printArticle(cmd.OutOrStdout(), article)
			return nil
		},
	}
}

func newArticlesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete stored articles by id",
		Long: `Delete stored articles by id. Ids that do not exist are skipped and
reported.

Examples:
  blogscraper articles delete 3
  blogscraper articles delete 3 4 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var missing []int64
			var deleted int64
			err = store.WithTx(cmd.Context(), func(repo articles.Repository) error {
				existing, err := repo.ExistingIDs(cmd.Context(), ids)
				if err != nil {
					return err
				}
				for _, id := range ids {
					if !existing[id] {
						missing = append(missing, id)
					}
				}
				deleted, err = repo.DeleteByIDs(cmd.Context(), ids)
				return err
			})
			if err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, id := range missing {
				warnColor.Fprintf(out, "Article %d not found, skipped\n", id)
			}
			successColor.Fprintf(out, "Successfully deleted %d article(s)\n", deleted)
			return nil
		},
	}
}

// parseIDs parses positive integer article ids.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid article id: %s", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
