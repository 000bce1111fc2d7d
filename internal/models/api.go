package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by POST /ask. Pointer fields distinguish
// a missing or null field from an empty string.
type AskResponse struct {
	Answer  *string          `json:"answer" validate:"required"`
	Sources []SourceResponse `json:"sources" validate:"required,dive"`
}

// SourceResponse is one evidence item as sent by the service.
type SourceResponse struct {
	Source *string `json:"source" validate:"required"`
	Text   *string `json:"text" validate:"required"`
}

// DocumentResponse is the body returned by GET /document/{name}.
type DocumentResponse struct {
	Filename string  `json:"filename,omitempty"`
	Content  *string `json:"content" validate:"required"`
}

// Validate reports whether every required field of the ask contract is present.
func (r *AskResponse) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("ask response: %w", err)
	}
	return nil
}

// ToAnswer converts a validated response. Call Validate first.
func (r *AskResponse) ToAnswer() *Answer {
	sources := make([]Evidence, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, Evidence{Source: *s.Source, Text: *s.Text})
	}
	return &Answer{Text: *r.Answer, Sources: sources}
}

// Validate reports whether the document contract is satisfied.
func (r *DocumentResponse) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("document response: %w", err)
	}
	return nil
}

// ToDocument converts a validated response for the requested name.
func (r *DocumentResponse) ToDocument(name string) *Document {
	return &Document{Name: name, Content: *r.Content}
}
