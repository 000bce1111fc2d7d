// Package integration provides tests that run config, client and output together against a fake service.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/counsel/internal/apitest"
	"github.com/hyperjump/counsel/internal/cli"
	"github.com/hyperjump/counsel/internal/client"
	"github.com/hyperjump/counsel/internal/config"
	"github.com/hyperjump/counsel/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clientFromConfig(cfg *config.Config) *client.Client {
	return client.New(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout))
}

func TestIntegration_AskFromConfig(t *testing.T) {
	backend := apitest.New(t)
	backend.SetAnswer("Either party may terminate with **ninety days** notice.",
		models.Evidence{Source: "lease.pdf", Text: "The notice period for termination is ninety days."},
		models.Evidence{Source: "msa.pdf", Text: "Notice Period: sixty days for convenience."},
	)
	t.Setenv(config.EnvAPIBaseURL, "")
	cfg, err := config.Load(writeConfig(t, "api:\n  base_url: \""+backend.URL()+"/\"\n  timeout: 5s\n"))
	if err != nil {
		t.Fatal(err)
	}

	question := "notice period"
	answer, err := clientFromConfig(cfg).Ask(context.Background(), question)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	report := &cli.AnswerReport{Question: question, Answer: answer.Text, Sources: answer.Sources}
	if err := cli.WriteAnswer(&out, report, cli.OutputText, cli.Options{Width: cfg.UI.WrapWidth}); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{
		"--- Relevant clauses (2) ---",
		"SOURCE: lease.pdf",
		"SOURCE: msa.pdf",
		">>notice period<<",
		">>Notice Period<<",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if got := backend.Questions(); len(got) != 1 || got[0] != question {
		t.Errorf("questions = %v", got)
	}
}

func TestIntegration_EnvOverridesConfig(t *testing.T) {
	backend := apitest.New(t)
	backend.SetAnswer("From the environment.")
	t.Setenv(config.EnvAPIBaseURL, backend.URL())
	cfg, err := config.Load(writeConfig(t, "api:\n  base_url: \"http://127.0.0.1:1\"\n"))
	if err != nil {
		t.Fatal(err)
	}

	answer, err := clientFromConfig(cfg).Ask(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	report := &cli.AnswerReport{Question: "anything", Answer: answer.Text, Sources: answer.Sources}
	if err := cli.WriteAnswer(&out, report, cli.OutputJSON, cli.Options{}); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Answer  string            `json:"answer"`
		Sources []models.Evidence `json:"sources"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Answer != "From the environment." || decoded.Sources == nil || len(decoded.Sources) != 0 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestIntegration_DocumentFromConfig(t *testing.T) {
	backend := apitest.New(t)
	backend.AddDocument("Master Services Agreement.pdf", "Fees are due in thirty days. Late fees accrue monthly.")
	t.Setenv(config.EnvAPIBaseURL, backend.URL())
	cfg, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := clientFromConfig(cfg).FetchDocument(context.Background(), "Master Services Agreement.pdf")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := cli.WriteDocument(&out, doc, "fees", cli.OutputCompact, cli.Options{}); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Master Services Agreement.pdf\t2\n" {
		t.Errorf("compact output = %q", got)
	}
}
