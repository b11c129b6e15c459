package content

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	headingMarker = "#"
	bulletMarker  = "•"
	quoteMarker   = ">"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// Format renders blocks as a text document: headings as "## text" surrounded
// by blank lines, paragraphs followed by a blank line, bulleted and numbered
// list lines followed by one blank line, and quotes as "> text".
func Format(blocks []Block) string {
	var out []string

	for _, b := range blocks {
		switch b.Kind {
		case KindHeading:
			prefix := strings.Repeat(headingMarker, b.Level)
			out = append(out, fmt.Sprintf("\n%s %s\n", prefix, b.Text))
		case KindParagraph:
			out = append(out, b.Text+"\n")
		case KindUnorderedList:
			for _, item := range b.Items {
				out = append(out, bulletMarker+" "+item)
			}
			out = append(out, "")
		case KindOrderedList:
			for i, item := range b.Items {
				out = append(out, fmt.Sprintf("%d. %s", i+1, item))
			}
			out = append(out, "")
		case KindQuote:
			out = append(out, quoteMarker+" "+b.Text+"\n")
		}
	}

	return Normalize(strings.Join(out, "\n"))
}

// Normalize collapses runs of three or more newlines to exactly two and trims
// surrounding whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}
