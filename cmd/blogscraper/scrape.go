package main

import (
	"fmt"

	"github.com/pevans/blogscraper/content"
	"github.com/pevans/blogscraper/discovery"
	"github.com/pevans/blogscraper/ingest"
	"github.com/spf13/cobra"
)

func newScrapeCmd(a *app) *cobra.Command {
	var count int
	var baseURL string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the latest articles and save them",
		Long: `Collect the most recent articles from the blog listing, extract their
content and save them. Articles already stored are updated in place.

Examples:
  blogscraper scrape                                   # Use the configured count
  blogscraper scrape --count 10                        # Scrape 10 articles
  blogscraper scrape --base-url https://example.com/blog`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Scraper
			if cmd.Flags().Changed("count") {
				cfg.TargetCount = count
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scraping %d articles from %s...\n", cfg.TargetCount, cfg.BaseURL)

			result, err := ingest.NewService(store, cfg, a.logger).RunWith(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}

			printScrapeResult(out, result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of articles to collect")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "blog listing URL")
	return cmd
}

func newContentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "content <url>",
		Short: "Print the extracted content of one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Scraper
			fetcher := discovery.NewFetcher(cfg.RequestTimeout, cfg.UserAgent)
			text := discovery.NewScraper(fetcher, a.logger).ArticleContent(cmd.Context(), args[0])

			if content.IsSentinel(text) {
				warnColor.Fprintln(cmd.ErrOrStderr(), text)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
