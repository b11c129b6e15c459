package articles

import (
	"time"

	"github.com/pevans/blogscraper/scraper"
)

// Article is a persisted blog article.
type Article struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	URL               string             `json:"url"`
	Excerpt           string             `json:"excerpt"`
	Image             string             `json:"image"`
	ImageAlt          string             `json:"image_alt"`
	AuthorName        string             `json:"author_name"`
	AuthorURL         string             `json:"author_url"`
	Date              string             `json:"date"`
	PublishedAt       *time.Time         `json:"published_at"`
	Categories        []scraper.Category `json:"categories"`
	FullContent       *string            `json:"full_content"`
	IsOptimized       bool               `json:"is_optimized"`
	ReferenceArticles []ReferenceArticle `json:"reference_articles"`
	OptimizedAt       *time.Time         `json:"optimized_at"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ReferenceArticle is an external article an optimized rewrite drew on.
type ReferenceArticle struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ArticleFields holds the scraped fields of an article. It is the input of
// Create and, through AsUpdate, the full replacement applied on re-scrape.
type ArticleFields struct {
	Title       string
	URL         string
	Excerpt     string
	Image       string
	ImageAlt    string
	AuthorName  string
	AuthorURL   string
	Date        string
	Categories  []scraper.Category
	FullContent *string
}

// FieldsFromSummary builds the scraped fields of a listing summary and its
// extracted content.
func FieldsFromSummary(s scraper.ArticleSummary, fullContent *string) ArticleFields {
	return ArticleFields{
		Title:       s.Title,
		URL:         s.URL,
		Excerpt:     s.Excerpt,
		Image:       s.Image,
		ImageAlt:    s.ImageAlt,
		AuthorName:  s.Author.Name,
		AuthorURL:   s.Author.URL,
		Date:        s.Date,
		Categories:  s.Categories,
		FullContent: fullContent,
	}
}

// AsUpdate returns an update that overwrites every scraped field except the
// URL. Optimization metadata is not part of it.
func (f ArticleFields) AsUpdate() ArticleUpdate {
	categories := f.Categories
	return ArticleUpdate{
		Title:        &f.Title,
		Excerpt:      &f.Excerpt,
		Image:        &f.Image,
		ImageAlt:     &f.ImageAlt,
		AuthorName:   &f.AuthorName,
		AuthorURL:    &f.AuthorURL,
		Date:         &f.Date,
		Categories:   &categories,
		FullContent:  f.FullContent,
		ClearContent: f.FullContent == nil,
	}
}

// ArticleUpdate represents fields that can be updated on an article. Nil
// fields are left unchanged.
type ArticleUpdate struct {
	Title             *string
	URL               *string
	Excerpt           *string
	Image             *string
	ImageAlt          *string
	AuthorName        *string
	AuthorURL         *string
	Date              *string
	Categories        *[]scraper.Category
	FullContent       *string
	ClearContent      bool // Set to true to set full_content to NULL
	IsOptimized       *bool
	ReferenceArticles *[]ReferenceArticle
	OptimizedAt       *time.Time
}

// ListFilter selects one page of articles.
type ListFilter struct {
	PerPage  int
	Page     int
	Category string // Matches a category name; empty means all
}

// Page is one page of a paginated article listing.
type Page struct {
	Data        []Article `json:"data"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	Total       int64     `json:"total"`
	LastPage    int       `json:"last_page"`
}
