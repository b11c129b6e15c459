// Package content extracts the body of an article page as a sequence of
// classified blocks and renders those blocks as a normalized text document.
package content

// Kind identifies the structural type of a Block.
type Kind int

// Block kinds.
const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindUnorderedList
	KindOrderedList
	KindQuote
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindUnorderedList:
		return "unordered_list"
	case KindOrderedList:
		return "ordered_list"
	case KindQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Block is one classified unit of an article body. Level is set only for
// headings (1-6); Items only for lists; Text for everything else.
type Block struct {
	Kind  Kind     `json:"type"`
	Level int      `json:"level,omitempty"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Heading returns a heading block of the given level.
func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// UnorderedList returns a bulleted list block.
func UnorderedList(items ...string) Block {
	return Block{Kind: KindUnorderedList, Items: items}
}

// OrderedList returns a numbered list block.
func OrderedList(items ...string) Block {
	return Block{Kind: KindOrderedList, Items: items}
}

// Quote returns a block quote.
func Quote(text string) Block {
	return Block{Kind: KindQuote, Text: text}
}
