package terms

import "strings"

// SpanKind tells whether a span may be rewritten.
type SpanKind uint8

const (
	SpanText SpanKind = iota
	SpanMarkup
)

func (k SpanKind) String() string {
	if k == SpanMarkup {
		return "markup"
	}
	return "text"
}

// Span is a contiguous slice of the input.
type Span struct {
	Kind SpanKind
	Text string
}

// Split cuts text into alternating text and markup spans. Markup is "<",
// one or more runes other than "<" and ">", then ">". A "<" that never
// closes stays in the text. Join(Split(s)) == s for every s.
func Split(text string) []Span {
	var spans []Span
	start, i := 0, 0
	for i < len(text) {
		if text[i] != '<' {
			i++
			continue
		}
		j := i + 1
		for j < len(text) && text[j] != '<' && text[j] != '>' {
			j++
		}
		switch {
		case j == len(text):
			i = j
		case text[j] == '<':
			i = j
		case j == i+1: // "<>"
			i = j + 1
		default:
			if start < i {
				spans = append(spans, Span{Kind: SpanText, Text: text[start:i]})
			}
			spans = append(spans, Span{Kind: SpanMarkup, Text: text[i : j+1]})
			i = j + 1
			start = i
		}
	}
	if start < len(text) {
		spans = append(spans, Span{Kind: SpanText, Text: text[start:]})
	}
	return spans
}

// Join concatenates spans in order.
func Join(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
