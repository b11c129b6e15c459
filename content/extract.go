package content

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Placeholders stored in place of content that could not be extracted. They
// are valid return values, never errors, so one bad article cannot abort a
// batch.
const (
	NotAvailable      = "Content not available"
	NotRecognized     = "Content structure not recognized"
	NoReadableContent = "No readable content found"
)

// IsSentinel reports whether s is one of the placeholders above.
func IsSentinel(s string) bool {
	switch s {
	case NotAvailable, NotRecognized, NoReadableContent:
		return true
	}
	return false
}

// Outcome describes how an extraction ended.
type Outcome string

// Extraction outcomes.
const (
	OutcomeExtracted     Outcome = "extracted"
	OutcomeNotAvailable  Outcome = "not_available"
	OutcomeNotRecognized Outcome = "not_recognized"
	OutcomeNoContent     Outcome = "no_content"
)

const (
	// MinTextLength is the shortest trimmed text, in characters, that can
	// become a block.
	MinTextLength = 10

	// BoilerplateMaxLength is the length below which text containing a
	// boilerplate keyword is dropped. Longer passages are kept.
	BoilerplateMaxLength = 100
)

// BoilerplateKeywords mark social, navigation and promotional snippets.
var BoilerplateKeywords = []string{
	"share",
	"follow us",
	"subscribe",
	"click here",
	"read more",
	"comment",
	"applause",
	"facebook",
	"twitter",
	"linkedin",
	"whatsapp",
	"pinterest",
}

// ContainerSelectors are the candidates for the main content container, in
// priority order. The first selector matching at least one element wins.
var ContainerSelectors = []string{
	".entry-content",
	".post-content",
	".article-content",
	"article .content",
	".single-post-content",
}

const blockSelector = "h1, h2, h3, h4, h5, h6, p, ul, ol, blockquote"

// sanitizer keeps the text-bearing markup Blocks reads. Other elements are
// unwrapped to their content; script and style bodies are dropped.
var sanitizer = bluemonday.UGCPolicy()

// ParseDocument parses article HTML into a document.
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Sanitize returns a sanitized copy of container. The container is chosen on
// the raw document, so its own tag and class never need to survive the
// policy.
func Sanitize(container *goquery.Selection) (*goquery.Selection, error) {
	html, err := goquery.OuterHtml(container)
	if err != nil {
		return nil, fmt.Errorf("failed to render container: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitizer.Sanitize(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sanitized container: %w", err)
	}
	return doc.Find("body"), nil
}

// FindContainer returns the first element matched by the first selector in
// ContainerSelectors that matches anything.
func FindContainer(doc *goquery.Document) (*goquery.Selection, bool) {
	for _, selector := range ContainerSelectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			return sel.First(), true
		}
	}
	return nil, false
}

// Blocks walks the headings, paragraphs, lists and quotes inside container in
// document order and returns the ones that survive the length and
// boilerplate filters.
func Blocks(container *goquery.Selection) []Block {
	var blocks []Block
	container.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if b, ok := classify(s); ok {
			blocks = append(blocks, b)
		}
	})
	return blocks
}

// classify turns one element into a block, or reports false when the element
// is too short, is boilerplate, or is a list without items.
func classify(s *goquery.Selection) (Block, bool) {
	text := strings.TrimSpace(s.Text())
	if utf8.RuneCountInString(text) < MinTextLength {
		return Block{}, false
	}
	if IsBoilerplate(text) {
		return Block{}, false
	}

	switch tag := goquery.NodeName(s); tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return Heading(int(tag[1]-'0'), text), true
	case "p":
		return Paragraph(text), true
	case "ul", "ol":
		items := listItems(s)
		if len(items) == 0 {
			return Block{}, false
		}
		if tag == "ul" {
			return UnorderedList(items...), true
		}
		return OrderedList(items...), true
	case "blockquote":
		return Quote(text), true
	}
	return Block{}, false
}

// IsBoilerplate reports whether text is a short snippet containing one of
// BoilerplateKeywords.
func IsBoilerplate(text string) bool {
	if utf8.RuneCountInString(text) >= BoilerplateMaxLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range BoilerplateKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// listItems returns the trimmed, non-empty text of every li under s.
func listItems(s *goquery.Selection) []string {
	var items []string
	s.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := strings.TrimSpace(li.Text()); text != "" {
			items = append(items, text)
		}
	})
	return items
}

// Extract locates the content container of an article document, sanitizes
// it and renders its blocks. When no container or no block is found the matching
// placeholder is returned instead.
func Extract(doc *goquery.Document) (string, Outcome) {
	container, ok := FindContainer(doc)
	if !ok {
		return NotRecognized, OutcomeNotRecognized
	}

	clean, err := Sanitize(container)
	if err != nil {
		return NoReadableContent, OutcomeNoContent
	}

	blocks := Blocks(clean)
	if len(blocks) == 0 {
		return NoReadableContent, OutcomeNoContent
	}

	return Format(blocks), OutcomeExtracted
}
