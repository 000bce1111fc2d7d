package models

import (
	"encoding/json"
	"testing"
)

func TestAskResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"complete", `{"answer":"30 days notice.","sources":[{"source":"lease.pdf","text":"30 days notice"}]}`, false},
		{"empty sources", `{"answer":"none","sources":[]}`, false},
		{"empty answer string", `{"answer":"","sources":[]}`, false},
		{"missing answer", `{"sources":[]}`, true},
		{"null answer", `{"answer":null,"sources":[]}`, true},
		{"missing sources", `{"answer":"x"}`, true},
		{"null sources", `{"answer":"x","sources":null}`, true},
		{"source without text", `{"answer":"x","sources":[{"source":"a.txt"}]}`, true},
		{"source without name", `{"answer":"x","sources":[{"text":"clause"}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp AskResponse
			if err := json.Unmarshal([]byte(tt.body), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			err := resp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAskResponse_ToAnswer(t *testing.T) {
	var resp AskResponse
	body := `{"answer":"30 days notice.","sources":[{"source":"lease.pdf","text":"30 days notice"},{"source":"nda.txt","text":"term"}]}`
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if err := resp.Validate(); err != nil {
		t.Fatal(err)
	}
	ans := resp.ToAnswer()
	if ans.Text != "30 days notice." {
		t.Errorf("answer text = %q", ans.Text)
	}
	if len(ans.Sources) != 2 || ans.Sources[0] != (Evidence{Source: "lease.pdf", Text: "30 days notice"}) {
		t.Errorf("sources = %+v", ans.Sources)
	}
}

func TestDocumentResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"with filename", `{"filename":"lease.txt","content":"TERM. 12 months."}`, false},
		{"content only", `{"content":""}`, false},
		{"missing content", `{"filename":"lease.txt"}`, true},
		{"null content", `{"content":null}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp DocumentResponse
			if err := json.Unmarshal([]byte(tt.body), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			err := resp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				doc := resp.ToDocument("lease.txt")
				if doc.Name != "lease.txt" || doc.Content != *resp.Content {
					t.Errorf("ToDocument() = %+v", doc)
				}
			}
		})
	}
}
