// Package ingest runs batch scrapes: it collects article summaries from the
// blog listing, extracts each article's content and saves the records in a
// single transaction.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/discovery"
	"github.com/pevans/blogscraper/metrics"
	"github.com/pevans/blogscraper/scraper"
)

// Stats counts what a batch scrape did with each collected article.
// Skipped is always zero: every collected article is either created or
// updated.
type Stats struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Result is the outcome of one batch scrape.
type Result struct {
	RunID    uuid.UUID          `json:"run_id"`
	Stats    Stats              `json:"stats"`
	Articles []articles.Article `json:"articles"`
}

// Service runs batch scrapes against one article store.
type Service struct {
	store  *articles.Store
	config scraper.Config
	logger *slog.Logger
}

// NewService creates a batch scrape service with a default configuration.
func NewService(store *articles.Store, config scraper.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Config returns the service's default scrape configuration.
func (s *Service) Config() scraper.Config {
	return s.config
}

// Run scrapes with the service's default configuration.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	return s.RunWith(ctx, s.config)
}

// RunWith collects up to cfg.TargetCount summaries, extracts their content
// and upserts them by URL. A listing failure aborts the run before anything
// is written; content failures are stored as placeholders. All writes share
// one transaction.
func (s *Service) RunWith(ctx context.Context, cfg scraper.Config) (result *Result, err error) {
	start := time.Now()
	runID := uuid.New()
	logger := s.logger.With("run_id", runID.String())

	defer func() {
		var created, updated int
		if result != nil {
			created, updated = result.Stats.New, result.Stats.Updated
		}
		metrics.RecordBatch(err, time.Since(start), created, updated)
	}()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scrape configuration: %w", err)
	}

	fetcher := discovery.NewFetcher(cfg.RequestTimeout, cfg.UserAgent)

	logger.Info("starting batch scrape", "base_url", cfg.BaseURL, "target_count", cfg.TargetCount)
	summaries, err := discovery.NewOrchestrator(cfg, fetcher, logger).Collect(ctx)
	if err != nil {
		logger.Error("batch scrape failed", "error", err)
		return nil, err
	}

	// Content is fetched before the transaction opens so no network I/O
	// happens while the write lock is held.
	contentScraper := discovery.NewScraper(fetcher, logger)
	fields := make([]articles.ArticleFields, 0, len(summaries))
	for _, summary := range summaries {
		var fullContent *string
		if summary.URL != "" {
			text := contentScraper.ArticleContent(ctx, summary.URL)
			fullContent = &text
		}
		fields = append(fields, articles.FieldsFromSummary(summary, fullContent))
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch scrape cancelled: %w", err)
	}

	saved, stats, err := s.save(ctx, fields)
	if err != nil {
		logger.Error("failed to save articles", "error", err)
		return nil, err
	}

	logger.Info("batch scrape finished",
		"new", stats.New,
		"updated", stats.Updated,
		"total", len(saved),
		"duration", time.Since(start),
	)

	return &Result{
		RunID:    runID,
		Stats:    stats,
		Articles: saved,
	}, nil
}

// save upserts every record in one transaction. Re-scraped articles get all
// scraped fields replaced while their optimization metadata is kept.
func (s *Service) save(ctx context.Context, fields []articles.ArticleFields) ([]articles.Article, Stats, error) {
	var saved []articles.Article
	var stats Stats

	err := s.store.WithTx(ctx, func(repo articles.Repository) error {
		saved = make([]articles.Article, 0, len(fields))
		stats = Stats{}

		for _, f := range fields {
			existing, err := repo.FindByURL(ctx, f.URL)
			if err != nil {
				return err
			}

			var article *articles.Article
			if existing != nil {
				article, err = repo.Update(ctx, existing.ID, f.AsUpdate())
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", f.URL, err)
				}
				stats.Updated++
			} else {
				article, err = repo.Create(ctx, f)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", f.URL, err)
				}
				stats.New++
			}
			saved = append(saved, *article)
		}
		return nil
	})
	if err != nil {
		return nil, Stats{}, err
	}

	return saved, stats, nil
}
