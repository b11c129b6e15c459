package discovery

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/blogscraper/scraper"
)

// ParseMaxPage returns the highest purely numeric page number among the
// pagination controls, or 1 when there is none.
func ParseMaxPage(doc *goquery.Document, sel scraper.ListingSelectors) int {
	maxPage := 1
	doc.Find(sel.Pagination).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !isDigits(text) {
			return
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return
		}
		if n > maxPage {
			maxPage = n
		}
	})
	return maxPage
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// summaryResult is the outcome of parsing one article container: either a
// summary or the reason the container was skipped.
type summaryResult struct {
	summary scraper.ArticleSummary
	err     error
}

// ParseSummaries extracts one summary per article container on a listing
// page. A container whose parsing fails is logged and skipped without
// affecting its siblings. The result is reversed relative to document order,
// so the oldest article on the page comes first.
func ParseSummaries(
	doc *goquery.Document,
	pageURL string,
	sel scraper.ListingSelectors,
	logger *slog.Logger,
) []scraper.ArticleSummary {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var results []summaryResult
	doc.Find(sel.Article).Each(func(_ int, s *goquery.Selection) {
		results = append(results, parseContainer(s, base, sel))
	})

	summaries := make([]scraper.ArticleSummary, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			logger.Warn("skipping article container", "page", pageURL, "index", i, "error", r.err)
			continue
		}
		summaries = append(summaries, r.summary)
	}

	slices.Reverse(summaries)
	return summaries
}

// parseContainer runs parseSummary and turns a panic while reading the
// container into a skip result.
func parseContainer(s *goquery.Selection, base *url.URL, sel scraper.ListingSelectors) (result summaryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = summaryResult{err: fmt.Errorf("failed to parse article container: %v", r)}
		}
	}()
	return summaryResult{summary: parseSummary(s, base, sel)}
}

// parseSummary extracts the fields of one article container. Missing
// elements leave the field at its default.
func parseSummary(s *goquery.Selection, base *url.URL, sel scraper.ListingSelectors) scraper.ArticleSummary {
	summary := scraper.NewArticleSummary()

	if title := s.Find(sel.TitleLink).First(); title.Length() > 0 {
		summary.Title = strings.TrimSpace(title.Text())
		summary.URL = resolveAttr(title, "href", base)
	}

	if img := s.Find(sel.Image).First(); img.Length() > 0 {
		summary.Image = resolveAttr(img, "src", base)
		summary.ImageAlt = img.AttrOr("alt", "")
	}

	if excerpt := s.Find(sel.Excerpt).First(); excerpt.Length() > 0 {
		summary.Excerpt = strings.TrimSpace(excerpt.Text())
	}

	if author := s.Find(sel.AuthorLink).First(); author.Length() > 0 {
		summary.Author.Name = strings.TrimSpace(author.Text())
		summary.Author.URL = resolveAttr(author, "href", base)
	}

	date := s.Find(sel.Date).First()
	if date.Length() == 0 && sel.DateFallback != "" {
		date = s.Find(sel.DateFallback).First()
	}
	if date.Length() > 0 {
		summary.Date = strings.TrimSpace(date.Text())
	}

	s.Find(sel.Categories).Each(func(_ int, c *goquery.Selection) {
		summary.Categories = append(summary.Categories, scraper.Category{
			Name: strings.TrimSpace(c.Text()),
			URL:  resolveAttr(c, "href", base),
		})
	})

	return summary
}

// resolveAttr reads a URL attribute and resolves it against base. A missing
// or empty attribute resolves to "". A value that does not parse as a URL is
// returned trimmed but otherwise unchanged.
func resolveAttr(s *goquery.Selection, attr string, base *url.URL) string {
	raw := strings.TrimSpace(s.AttrOr(attr, ""))
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
