package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/counsel/internal/apitest"
	"github.com/hyperjump/counsel/internal/models"
)

func TestAsk(t *testing.T) {
	backend := apitest.New(t)
	backend.SetAnswer("30 days notice.", models.Evidence{Source: "lease.pdf", Text: "30 days notice"})

	c := New(backend.URL() + "/")
	ans, err := c.Ask(context.Background(), "What is the termination clause?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "30 days notice." {
		t.Errorf("answer = %q", ans.Text)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Source != "lease.pdf" || ans.Sources[0].Text != "30 days notice" {
		t.Errorf("sources = %+v", ans.Sources)
	}
	if q := backend.Questions(); len(q) != 1 || q[0] != "What is the termination clause?" {
		t.Errorf("backend saw questions %v", q)
	}
	if ids := backend.RequestIDs(); len(ids) != 1 || ids[0] == "" {
		t.Errorf("expected a request id header, got %v", ids)
	}
}

func TestAsk_questionSentVerbatim(t *testing.T) {
	backend := apitest.New(t)
	c := New(backend.URL())
	q := "  clause \"7.2\" <b>?  "
	if _, err := c.Ask(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if got := backend.Questions(); len(got) != 1 || got[0] != q {
		t.Errorf("questions = %q, want %q", got, q)
	}
}

func TestAsk_failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"service unavailable", http.StatusServiceUnavailable, `{"detail":"AI Services not initialized"}`, ErrStatus},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrDecode},
		{"wrong type", http.StatusOK, `{"answer":42,"sources":[]}`, ErrDecode},
		{"missing sources", http.StatusOK, `{"answer":"x"}`, ErrDecode},
		{"null source text", http.StatusOK, `{"answer":"x","sources":[{"source":"a","text":null}]}`, ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := apitest.New(t)
			backend.SetAskResponse(tt.status, tt.body)
			_, err := New(backend.URL()).Ask(context.Background(), "q")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAsk_statusErrorCarriesCode(t *testing.T) {
	backend := apitest.New(t)
	backend.SetAskResponse(http.StatusBadGateway, "upstream down")
	_, err := New(backend.URL()).Ask(context.Background(), "q")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway || se.Body != "upstream down" {
		t.Errorf("status error = %+v", se)
	}
}

func TestAsk_transportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Ask(context.Background(), "q")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestAsk_timeout(t *testing.T) {
	backend := apitest.New(t)
	backend.HoldAsks()
	_, err := New(backend.URL(), WithTimeout(50*time.Millisecond)).Ask(context.Background(), "q")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestFetchDocument(t *testing.T) {
	backend := apitest.New(t)
	backend.AddDocument("lease.txt", "TERM. Either party may terminate with 30 days notice.")

	doc, err := New(backend.URL()).FetchDocument(context.Background(), "lease.txt")
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if doc.Name != "lease.txt" || doc.Content != "TERM. Either party may terminate with 30 days notice." {
		t.Errorf("doc = %+v", doc)
	}
}

func TestFetchDocument_escapesIdentifier(t *testing.T) {
	backend := apitest.New(t)
	names := []string{"master services agreement.txt", "../etc/passwd", "a?b#c.txt"}
	for _, n := range names {
		backend.AddDocument(n, "content of "+n)
	}
	c := New(backend.URL())
	for _, n := range names {
		doc, err := c.FetchDocument(context.Background(), n)
		if err != nil {
			t.Fatalf("FetchDocument(%q): %v", n, err)
		}
		if doc.Content != "content of "+n {
			t.Errorf("FetchDocument(%q) content = %q", n, doc.Content)
		}
	}
	got := backend.DocumentLookups()
	if len(got) != len(names) {
		t.Fatalf("lookups = %v", got)
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("lookup %d = %q, want %q", i, got[i], names[i])
		}
	}
}

func TestFetchDocument_failures(t *testing.T) {
	backend := apitest.New(t)
	c := New(backend.URL())

	if _, err := c.FetchDocument(context.Background(), "missing.txt"); !errors.Is(err, ErrStatus) {
		t.Errorf("missing document: error = %v, want ErrStatus", err)
	}
	_, err := c.FetchDocument(context.Background(), "  ")
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("blank name: error = %v, want ErrInvalidIdentifier", err)
	}
	for _, class := range []error{ErrTransport, ErrStatus, ErrDecode} {
		if errors.Is(err, class) {
			t.Errorf("blank name: error %v should not match %v", err, class)
		}
	}
	if len(backend.DocumentLookups()) != 1 {
		t.Errorf("blank name should not reach the service: %v", backend.DocumentLookups())
	}
}
