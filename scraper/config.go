package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults for a scrape run.
const (
	DefaultBaseURL        = "https://beyondchats.com/blogs"
	DefaultTargetCount    = 5
	DefaultRequestTimeout = 30 * time.Second
	DefaultUserAgent      = "blogscraper/1.0 (+https://github.com/pevans/blogscraper)"
)

// Config is the explicit configuration of one scrape run. It is passed to the
// orchestrator at call time rather than read from process-wide state.
type Config struct {
	BaseURL        string
	TargetCount    int
	RequestTimeout time.Duration
	UserAgent      string
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		TargetCount:    DefaultTargetCount,
		RequestTimeout: DefaultRequestTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// Validate checks that the config can drive a scrape run.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("base_url must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("base_url must include a host")
	}
	if c.TargetCount <= 0 {
		return fmt.Errorf("target_count must be positive, got %d", c.TargetCount)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// PageURL returns the listing URL for the given 1-based page number. Page 1
// is the base URL itself; later pages live under /page/<n>/.
func (c Config) PageURL(page int) string {
	if page <= 1 {
		return c.BaseURL
	}
	return fmt.Sprintf("%s/page/%d/", strings.TrimRight(c.BaseURL, "/"), page)
}

// ListingSelectors defines how to extract summaries from a listing page.
type ListingSelectors struct {
	Pagination string `json:"pagination"`
	Article    string `json:"article"`
	TitleLink  string `json:"title_link"`
	Image      string `json:"image"`
	Excerpt    string `json:"excerpt"`
	AuthorLink string `json:"author_link"`
	Date       string `json:"date"`
	// DateFallback is tried when Date matches nothing.
	DateFallback string `json:"date_fallback"`
	Categories   string `json:"categories"`
}

// DefaultListingSelectors returns the selectors for the default blog theme.
func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Pagination:   ".page-numbers",
		Article:      "article",
		TitleLink:    "h2 a",
		Image:        "img",
		Excerpt:      "p",
		AuthorLink:   ".author a",
		Date:         "time",
		DateFallback: ".posted-on",
		Categories:   ".tag a, .category a",
	}
}
