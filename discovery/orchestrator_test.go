package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pevans/blogscraper/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlog serves a paginated listing and records the paths requested.
type fakeBlog struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

// Test helper: start a blog whose pages[i] holds the titles on page i+1,
// newest first as a listing page would show them
func newFakeBlog(t *testing.T, pages [][]string) *fakeBlog {
	t.Helper()
	blog := &fakeBlog{}

	mux := http.NewServeMux()
	mux.HandleFunc("/blogs/", func(w http.ResponseWriter, r *http.Request) {
		blog.record(r.URL.Path)

		page := 1
		if r.URL.Path != "/blogs/" {
			if _, err := fmt.Sscanf(r.URL.Path, "/blogs/page/%d/", &page); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		if page < 1 || page > len(pages) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingHTML(pages[page-1], len(pages)))
	})
	mux.HandleFunc("/blogs", func(w http.ResponseWriter, r *http.Request) {
		blog.record(r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingHTML(pages[0], len(pages)))
	})

	blog.server = httptest.NewServer(mux)
	t.Cleanup(blog.server.Close)
	return blog
}

func (b *fakeBlog) record(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, path)
}

func (b *fakeBlog) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *fakeBlog) config(target int) scraper.Config {
	cfg := scraper.DefaultConfig()
	cfg.BaseURL = b.server.URL + "/blogs"
	cfg.TargetCount = target
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func listingHTML(titles []string, lastPage int) string {
	var sb strings.Builder
	sb.WriteString("<html><body><main>")
	for _, title := range titles {
		slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
		fmt.Fprintf(&sb, `<article><h2><a href="/blogs/%s/">%s</a></h2><p>About %s</p></article>`, slug, title, title)
	}
	sb.WriteString(`<nav class="pagination">`)
	for i := 1; i <= lastPage; i++ {
		fmt.Fprintf(&sb, `<a class="page-numbers" href="/blogs/page/%d/">%d</a>`, i, i)
	}
	sb.WriteString(`<a class="page-numbers next" href="#">Next »</a></nav>`)
	sb.WriteString("</main></body></html>")
	return sb.String()
}

func titles(summaries []scraper.ArticleSummary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Title
	}
	return out
}

// TestCollect_WalksBackFromLastPage verifies page order, early stop and
// per-page reversal
func TestCollect_WalksBackFromLastPage(t *testing.T) {
	blog := newFakeBlog(t, [][]string{
		{"P1 A", "P1 B", "P1 C", "P1 D"},
		{"P2 A", "P2 B", "P2 C"},
	})
	cfg := blog.config(5)

	o := NewOrchestrator(cfg, NewFetcher(cfg.RequestTimeout, cfg.UserAgent), nil)
	summaries, err := o.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"P2 C", "P2 B", "P2 A", "P1 D", "P1 C"}, titles(summaries))
	assert.Equal(t, []string{"/blogs", "/blogs/page/2/", "/blogs"}, blog.paths(),
		"base page is fetched for pagination, then pages from last to first")
	assert.Equal(t, blog.server.URL+"/blogs/p2-c/", summaries[0].URL)
}

// TestCollect_StopsWhenTargetMet verifies no further pages are fetched
func TestCollect_StopsWhenTargetMet(t *testing.T) {
	blog := newFakeBlog(t, [][]string{
		{"P1 A", "P1 B"},
		{"P2 A", "P2 B"},
		{"P3 A", "P3 B", "P3 C"},
	})
	cfg := blog.config(2)

	o := NewOrchestrator(cfg, NewFetcher(cfg.RequestTimeout, ""), nil)
	summaries, err := o.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"P3 C", "P3 B"}, titles(summaries))
	assert.Equal(t, []string{"/blogs", "/blogs/page/3/"}, blog.paths())
}

// TestCollect_FewerThanTarget verifies every article is returned when the
// blog is smaller than the target
func TestCollect_FewerThanTarget(t *testing.T) {
	blog := newFakeBlog(t, [][]string{
		{"P1 A", "P1 B"},
		{"P2 A"},
	})
	cfg := blog.config(10)

	o := NewOrchestrator(cfg, NewFetcher(cfg.RequestTimeout, ""), nil)
	summaries, err := o.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"P2 A", "P1 B", "P1 A"}, titles(summaries))
	assert.Equal(t, []string{"/blogs", "/blogs/page/2/", "/blogs"}, blog.paths())
}

// TestCollect_SinglePage verifies blogs without pagination
func TestCollect_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<article><h2><a href="/one">One</a></h2></article><article><h2><a href="/two">Two</a></h2></article>`)
	}))
	defer server.Close()

	cfg := scraper.DefaultConfig()
	cfg.BaseURL = server.URL
	o := NewOrchestrator(cfg, NewFetcher(time.Second, ""), nil)

	summaries, err := o.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Two", "One"}, titles(summaries))
}

// TestCollect_ListingFailure verifies the base page failure message
func TestCollect_ListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := scraper.DefaultConfig()
	cfg.BaseURL = server.URL
	o := NewOrchestrator(cfg, NewFetcher(time.Second, ""), nil)

	summaries, err := o.Collect(context.Background())

	require.Error(t, err)
	assert.Nil(t, summaries)
	assert.Contains(t, err.Error(), "failed to fetch the blog page")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

// TestCollect_PageFailure verifies an unreachable listing page aborts the
// whole collection
func TestCollect_PageFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blogs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML([]string{"P1 A"}, 4))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := scraper.DefaultConfig()
	cfg.BaseURL = server.URL + "/blogs"
	o := NewOrchestrator(cfg, NewFetcher(time.Second, ""), nil)

	_, err := o.Collect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch page 4")
}

// TestLastPage verifies the highest page number is read from the base page
func TestLastPage(t *testing.T) {
	blog := newFakeBlog(t, [][]string{{"A"}, {"B"}, {"C"}})
	cfg := blog.config(1)

	page, err := NewOrchestrator(cfg, NewFetcher(time.Second, ""), nil).LastPage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, page)
}

// stubFetcher serves canned HTML keyed by URL.
type stubFetcher struct {
	pages map[string]string
	err   error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	s.calls = append(s.calls, url)
	if s.err != nil {
		return "", s.err
	}
	html, ok := s.pages[url]
	if !ok {
		return "", &FetchError{URL: url, StatusCode: http.StatusNotFound, Err: ErrUnexpectedStatus}
	}
	return html, nil
}

// TestPageSummaries_UsesPageURL verifies listing page addressing
func TestPageSummaries_UsesPageURL(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/blogs/page/2/": `<article><h2><a href="../../x/">X</a></h2></article>`,
	}}
	cfg := scraper.DefaultConfig()
	cfg.BaseURL = "https://example.com/blogs/"

	summaries, err := NewOrchestrator(cfg, fetcher, nil).PageSummaries(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "https://example.com/blogs/x/", summaries[0].URL, "links resolve against the listing page")
	assert.Equal(t, []string{"https://example.com/blogs/page/2/"}, fetcher.calls)
}

// TestCollect_InvalidConfig verifies a bad target count fails before any fetch
func TestCollect_InvalidConfig(t *testing.T) {
	for _, target := range []int{0, -1} {
		t.Run(fmt.Sprint(target), func(t *testing.T) {
			fetcher := &stubFetcher{}
			cfg := scraper.DefaultConfig()
			cfg.TargetCount = target

			summaries, err := NewOrchestrator(cfg, fetcher, nil).Collect(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), "target_count must be positive")
			assert.Nil(t, summaries)
			assert.Empty(t, fetcher.calls)
		})
	}
}
