package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/config"
	"github.com/pevans/blogscraper/content"
	"github.com/pevans/blogscraper/ingest"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
)

// newTable creates a borderless, left-aligned table writing to w.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

// printArticlesTable prints one page of articles.
func printArticlesTable(w io.Writer, page *articles.Page) {
	if len(page.Data) == 0 {
		fmt.Fprintln(w, "No articles to display.")
		return
	}

	first := (page.CurrentPage-1)*page.PerPage + 1
	fmt.Fprintf(w, "Showing %d-%d of %d articles (page %d of %d)\n\n",
		first, first+len(page.Data)-1, page.Total, page.CurrentPage, page.LastPage)

	rows := make([][]string, 0, len(page.Data))
	for _, a := range page.Data {
		published := "-"
		if a.PublishedAt != nil {
			published = a.PublishedAt.Format("2006-01-02")
		}
		optimized := ""
		if a.IsOptimized {
			optimized = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			truncate(a.Title, 60),
			published,
			categoryNames(a),
			optimized,
		})
	}

	table := newTable(w)
	table.Header([]string{"ID", "TITLE", "PUBLISHED", "CATEGORIES", "OPTIMIZED"})
	_ = table.Bulk(rows)
	_ = table.Render()
}

// printArticle prints one article with its content.
func printArticle(w io.Writer, a *articles.Article) {
	headerColor.Fprintln(w, a.Title)
	fmt.Fprintf(w, "  ID: %d\n", a.ID)
	fmt.Fprintf(w, "  URL: %s\n", a.URL)
	if a.AuthorName != "" {
		fmt.Fprintf(w, "  Author: %s\n", a.AuthorName)
	}
	if a.Date != "" {
		fmt.Fprintf(w, "  Date: %s\n", a.Date)
	}
	if names := categoryNames(*a); names != "" {
		fmt.Fprintf(w, "  Categories: %s\n", names)
	}
	fmt.Fprintf(w, "  Optimized: %t\n", a.IsOptimized)

	if a.FullContent == nil {
		return
	}
	fmt.Fprintln(w)
	if content.IsSentinel(*a.FullContent) {
		warnColor.Fprintln(w, *a.FullContent)
		return
	}
	fmt.Fprintln(w, *a.FullContent)
}

// printScrapeResult prints the summary of a batch scrape.
func printScrapeResult(w io.Writer, result *ingest.Result) {
	successColor.Fprintln(w, "Articles saved successfully with full content")
	fmt.Fprintf(w, "  Run: %s\n", result.RunID)
	fmt.Fprintf(w, "  New: %d\n", result.Stats.New)
	fmt.Fprintf(w, "  Updated: %d\n", result.Stats.Updated)
	fmt.Fprintf(w, "  Total: %d\n", len(result.Articles))

	for _, a := range result.Articles {
		marker := "•"
		if a.FullContent == nil || content.IsSentinel(*a.FullContent) {
			marker = warnColor.Sprint("!")
		}
		fmt.Fprintf(w, "  %s %s\n", marker, truncate(a.Title, 70))
	}
}

// printConfig prints the resolved configuration and any stored settings.
func printConfig(w io.Writer, cfg config.Config, stored *config.Settings) {
	headerColor.Fprintln(w, "Configuration")
	table := newTable(w)
	table.Header([]string{"KEY", "VALUE"})
	_ = table.Bulk([][]string{
		{"base_url", cfg.Scraper.BaseURL},
		{"target_count", strconv.Itoa(cfg.Scraper.TargetCount)},
		{"request_timeout", cfg.Scraper.RequestTimeout.String()},
		{"user_agent", cfg.Scraper.UserAgent},
		{"db", cfg.DBPath},
		{"addr", cfg.Addr},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
	})
	_ = table.Render()

	var rows [][]string
	if stored.BaseURL != "" {
		rows = append(rows, []string{"base_url", stored.BaseURL})
	}
	if stored.TargetCount > 0 {
		rows = append(rows, []string{"target_count", strconv.Itoa(stored.TargetCount)})
	}
	if stored.RequestTimeout != "" {
		rows = append(rows, []string{"request_timeout", stored.RequestTimeout})
	}
	if stored.UserAgent != "" {
		rows = append(rows, []string{"user_agent", stored.UserAgent})
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Stored API settings")
	if len(rows) == 0 {
		fmt.Fprintln(w, "None.")
		return
	}
	table = newTable(w)
	table.Header([]string{"KEY", "VALUE"})
	_ = table.Bulk(rows)
	_ = table.Render()
}

// printJSON prints v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func categoryNames(a articles.Article) string {
	names := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
