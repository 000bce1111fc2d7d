// Package highlight splits text into plain and matched segments for a literal,
// case-insensitive query, and renders those segments for terminals and HTML.
package highlight

import (
	"html/template"
	"iter"
	"regexp"
	"strings"
)

// Segment is a contiguous slice of the input text.
type Segment struct {
	Text    string
	Matched bool
}

// Segments yields the segments of text, marking every non-overlapping,
// case-insensitive occurrence of highlight. The highlight is matched as
// literal text. A blank highlight, or one that never occurs, yields a single
// plain segment holding all of text. Concatenating the yielded segments
// always reproduces text.
func Segments(text, highlight string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if strings.TrimSpace(highlight) == "" {
			yield(Segment{Text: text})
			return
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(highlight))
		pos := 0
		matched := false
		for pos < len(text) {
			loc := re.FindStringIndex(text[pos:])
			if loc == nil {
				break
			}
			start, end := pos+loc[0], pos+loc[1]
			if start > pos {
				if !yield(Segment{Text: text[pos:start]}) {
					return
				}
			}
			if !yield(Segment{Text: text[start:end], Matched: true}) {
				return
			}
			matched = true
			pos = end
		}
		if pos < len(text) || !matched {
			yield(Segment{Text: text[pos:]})
		}
	}
}

// Render concatenates the segments of text, passing matched segments through mark.
func Render(text, highlight string, mark func(string) string) string {
	var b strings.Builder
	b.Grow(len(text))
	for seg := range Segments(text, highlight) {
		if seg.Matched {
			b.WriteString(mark(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// HTML escapes text and wraps each match in <mark class="highlight">.
func HTML(text, highlight string) template.HTML {
	var b strings.Builder
	for seg := range Segments(text, highlight) {
		if seg.Matched {
			b.WriteString(`<mark class="highlight">`)
			b.WriteString(template.HTMLEscapeString(seg.Text))
			b.WriteString(`</mark>`)
			continue
		}
		b.WriteString(template.HTMLEscapeString(seg.Text))
	}
	return template.HTML(b.String())
}

// Count returns the number of matched segments.
func Count(text, highlight string) int {
	n := 0
	for seg := range Segments(text, highlight) {
		if seg.Matched {
			n++
		}
	}
	return n
}
