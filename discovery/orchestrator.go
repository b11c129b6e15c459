package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/blogscraper/metrics"
	"github.com/pevans/blogscraper/scraper"
)

// Orchestrator walks listing pages from the last (oldest) page back toward
// page 1, collecting summaries until the target count is reached.
type Orchestrator struct {
	config    scraper.Config
	selectors scraper.ListingSelectors
	fetcher   HTMLFetcher
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator for one scrape configuration.
func NewOrchestrator(config scraper.Config, fetcher HTMLFetcher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:    config,
		selectors: scraper.DefaultListingSelectors(),
		fetcher:   fetcher,
		logger:    logger,
	}
}

// LastPage fetches the base listing page and returns its highest page
// number.
func (o *Orchestrator) LastPage(ctx context.Context) (int, error) {
	doc, err := o.fetchListing(ctx, o.config.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch the blog page: %w", err)
	}
	return ParseMaxPage(doc, o.selectors), nil
}

// PageSummaries fetches one listing page and returns its summaries, oldest
// first.
func (o *Orchestrator) PageSummaries(ctx context.Context, page int) ([]scraper.ArticleSummary, error) {
	pageURL := o.config.PageURL(page)
	doc, err := o.fetchListing(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	return ParseSummaries(doc, pageURL, o.selectors, o.logger), nil
}

// Collect returns up to TargetCount summaries. Pages are visited from the
// last page down to page 1 and no page is fetched once the target is met.
// Because pages are consumed oldest first while each page's own order is
// reversed, the result is not strictly chronological across page
// boundaries.
func (o *Orchestrator) Collect(ctx context.Context) ([]scraper.ArticleSummary, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scrape config: %w", err)
	}
	target := o.config.TargetCount

	page, err := o.LastPage(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Info("discovered listing pages", "base_url", o.config.BaseURL, "last_page", page)

	summaries := make([]scraper.ArticleSummary, 0, target)
	for len(summaries) < target && page > 0 {
		pageSummaries, err := o.PageSummaries(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, s := range pageSummaries {
			if len(summaries) >= target {
				break
			}
			summaries = append(summaries, s)
		}

		o.logger.Debug("collected listing page", "page", page, "found", len(pageSummaries), "total", len(summaries))
		page--
	}

	return summaries, nil
}

func (o *Orchestrator) fetchListing(ctx context.Context, url string) (*goquery.Document, error) {
	start := time.Now()
	doc, err := FetchDocument(ctx, o.fetcher, url)
	metrics.RecordFetch(metrics.KindListing, err, time.Since(start))
	return doc, err
}
