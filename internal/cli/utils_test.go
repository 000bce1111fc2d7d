package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/counsel/internal/models"
)

func sampleReport() *AnswerReport {
	return &AnswerReport{
		Question: "notice",
		Answer:   "30 days notice.",
		Sources: []models.Evidence{
			{Source: "lease.pdf", Text: "Either party may terminate with 30 days Notice."},
			{Source: "nda.txt", Text: "Confidentiality survives\ntermination."},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "compact", "json"} {
		if f, err := ParseOutputFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleReport(), OutputJSON, Options{}); err != nil {
		t.Fatalf("WriteAnswer(json): %v", err)
	}
	var decoded AnswerReport
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Answer != "30 days notice." || len(decoded.Sources) != 2 || decoded.Sources[0].Source != "lease.pdf" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteAnswer_JSON_emptySources(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, &AnswerReport{Question: "q", Answer: "none"}, OutputJSON, Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"sources": []`) {
		t.Errorf("sources should encode as an empty array:\n%s", buf.String())
	}
}

func TestWriteAnswer_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleReport(), OutputText, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{
		"30 days notice.",
		"Relevant clauses (2)",
		"SOURCE: lease.pdf",
		"with 30 days >>Notice<<.",
		"SOURCE: nda.txt",
		"Matches: 1",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteAnswer_text_color(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleReport(), OutputText, Options{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected ANSI escapes with color enabled:\n%q", buf.String())
	}
	if strings.Contains(buf.String(), ">>") {
		t.Error("plain markers should not appear with color enabled")
	}
}

func TestWriteAnswer_text_noSources(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteAnswer(&buf, &AnswerReport{Question: "q", Answer: "I cannot find the answer."}, OutputText, Options{})
	if !strings.Contains(buf.String(), "No relevant clauses returned.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteAnswer_text_wraps(t *testing.T) {
	report := &AnswerReport{Answer: strings.Repeat("word ", 30)}
	var buf bytes.Buffer
	_ = WriteAnswer(&buf, report, OutputText, Options{Width: 20})
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "word") && len(line) > 20 {
			t.Errorf("line exceeds wrap width: %q", line)
		}
	}
}

func TestWriteAnswer_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleReport(), OutputCompact, Options{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[2] != "nda.txt\tConfidentiality survives termination." {
		t.Errorf("line 3 = %q", lines[2])
	}
}

func TestWriteAnswer_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleReport(), OutputFormat("unknown"), Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "SOURCE:") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteDocument(t *testing.T) {
	doc := &models.Document{Name: "lease.pdf", Content: "Term. The term is twelve months."}

	var text bytes.Buffer
	if err := WriteDocument(&text, doc, "term", OutputText, Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), ">>Term<<. The >>term<< is") {
		t.Errorf("text output = %q", text.String())
	}

	var compact bytes.Buffer
	_ = WriteDocument(&compact, doc, "term", OutputCompact, Options{})
	if compact.String() != "lease.pdf\t2\n" {
		t.Errorf("compact output = %q", compact.String())
	}

	var js bytes.Buffer
	_ = WriteDocument(&js, doc, "term", OutputJSON, Options{})
	var decoded struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		Matches int    `json:"matches"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Name != "lease.pdf" || decoded.Matches != 2 {
		t.Errorf("json output = %+v", decoded)
	}
}
