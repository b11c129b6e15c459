package discovery

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pevans/blogscraper/content"
	"github.com/pevans/blogscraper/metrics"
)

// Scraper extracts the formatted body of single article pages.
type Scraper struct {
	fetcher HTMLFetcher
	logger  *slog.Logger
}

// NewScraper creates an article scraper.
func NewScraper(fetcher HTMLFetcher, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		fetcher: fetcher,
		logger:  logger,
	}
}

// ArticleContent fetches url and returns its formatted content, or one of the
// content placeholders when the page cannot be fetched or read. It never
// returns an error.
func (s *Scraper) ArticleContent(ctx context.Context, url string) string {
	start := time.Now()
	html, err := s.fetcher.Fetch(ctx, url)
	metrics.RecordFetch(metrics.KindArticle, err, time.Since(start))
	if err != nil {
		s.logger.Warn("failed to fetch article content", "url", url, "error", err)
		return s.outcome(content.NotAvailable, content.OutcomeNotAvailable)
	}

	doc, err := content.ParseDocument(strings.NewReader(html))
	if err != nil {
		s.logger.Warn("failed to parse article content", "url", url, "error", err)
		return s.outcome(content.NotAvailable, content.OutcomeNotAvailable)
	}

	text, outcome := content.Extract(doc)
	switch outcome {
	case content.OutcomeNotRecognized:
		s.logger.Warn("could not find content container", "url", url)
	case content.OutcomeNoContent:
		s.logger.Warn("no readable content", "url", url)
	}
	return s.outcome(text, outcome)
}

func (s *Scraper) outcome(text string, outcome content.Outcome) string {
	metrics.RecordContentOutcome(string(outcome))
	return text
}
