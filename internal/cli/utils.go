// Package cli formats answers and documents for the one-shot commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hyperjump/counsel/internal/highlight"
	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/pkg/utils"
	"github.com/muesli/reflow/wordwrap"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// Options control text rendering.
type Options struct {
	// Color enables ANSI highlighting of query matches.
	Color bool
	// Width wraps text output; zero disables wrapping.
	Width int
}

// AnswerReport is what `counsel ask` prints.
type AnswerReport struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Sources  []models.Evidence `json:"sources"`
}

// WriteAnswer writes report to w in the given format. Unknown formats fall back to text.
func WriteAnswer(w io.Writer, report *AnswerReport, format OutputFormat, opts Options) error {
	switch format {
	case OutputJSON:
		if report.Sources == nil {
			report.Sources = []models.Evidence{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case OutputCompact:
		fmt.Fprintln(w, oneLine(report.Answer))
		for _, src := range report.Sources {
			fmt.Fprintf(w, "%s\t%s\n", src.Source, utils.Truncate(oneLine(src.Text), 200))
		}
		return nil
	default:
		writeAnswerText(w, report, opts)
		return nil
	}
}

func writeAnswerText(w io.Writer, report *AnswerReport, opts Options) {
	fmt.Fprintf(w, "\n%s\n\n", wrap(report.Answer, opts.Width))
	if len(report.Sources) == 0 {
		fmt.Fprintln(w, "No relevant clauses returned.")
		return
	}
	fmt.Fprintf(w, "--- Relevant clauses (%d) ---\n", len(report.Sources))
	marker := newMarker(opts.Color)
	for _, src := range report.Sources {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "SOURCE: %s\n", src.Source)
		if n := highlight.Count(src.Text, report.Question); n > 0 {
			fmt.Fprintf(w, "Matches: %d\n", n)
		}
		fmt.Fprintf(w, "\n\"%s\"\n\n", wrap(highlight.Render(src.Text, report.Question, marker), opts.Width))
	}
}

// WriteDocument writes doc to w, marking occurrences of query.
func WriteDocument(w io.Writer, doc *models.Document, query string, format OutputFormat, opts Options) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*models.Document
			Matches int `json:"matches"`
		}{doc, highlight.Count(doc.Content, query)})
	case OutputCompact:
		fmt.Fprintf(w, "%s\t%d\n", doc.Name, highlight.Count(doc.Content, query))
		return nil
	default:
		fmt.Fprintf(w, "📄 %s\n\n", doc.Name)
		fmt.Fprintln(w, wrap(highlight.Render(doc.Content, query, newMarker(opts.Color)), opts.Width))
		return nil
	}
}

// newMarker returns the function used for matched segments: a yellow
// background when color is on, >>brackets<< otherwise.
func newMarker(enabled bool) func(string) string {
	if !enabled {
		return func(s string) string { return ">>" + s + "<<" }
	}
	c := color.New(color.FgBlack, color.BgYellow)
	c.EnableColor()
	return func(s string) string { return c.Sprint(s) }
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
