package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ErrUnexpectedStatus indicates a response outside the 2xx/3xx range.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// FetchError describes a failed fetch of a single URL. StatusCode is zero
// when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (%d %s)", e.URL, e.Err, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTMLFetcher retrieves the HTML body of a page.
type HTMLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetcher issues timed GET requests. It never retries: a failed fetch is
// reported to the caller, which decides what unit of work it aborts.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch returns the body of url decoded to UTF-8. Errors are always
// *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	reader, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset label; read the bytes as they are.
		reader = body
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return string(data), nil
}

// FetchDocument fetches url and parses it with goquery.
func FetchDocument(ctx context.Context, fetcher HTMLFetcher, url string) (*goquery.Document, error) {
	html, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", url, err)
	}
	return doc, nil
}
