package scraper

// NoTitle is the title given to a summary whose listing entry has no title
// link.
const NoTitle = "No title"

// Author identifies the writer of an article as shown on the listing page.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Category is a tag or category link attached to an article.
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArticleSummary holds the fields extracted for one article on a listing
// page. Every field has a defined default; see NewArticleSummary.
type ArticleSummary struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Excerpt    string     `json:"excerpt"`
	Image      string     `json:"image"`
	ImageAlt   string     `json:"image_alt"`
	Author     Author     `json:"author"`
	Date       string     `json:"date"`
	Categories []Category `json:"categories"`
}

// NewArticleSummary returns a summary populated with the default for every
// field: NoTitle for the title, empty strings elsewhere and an empty (non-nil)
// category list.
func NewArticleSummary() ArticleSummary {
	return ArticleSummary{
		Title:      NoTitle,
		Categories: []Category{},
	}
}
