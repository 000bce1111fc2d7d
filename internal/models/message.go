// Package models defines the chat, evidence, and wire types shared by the client and front ends.
package models

// Role identifies who authored a chat message.
type Role string

const (
	// RoleUser marks a question typed by the user.
	RoleUser Role = "user"
	// RoleBot marks an answer, greeting, or error authored by the assistant.
	RoleBot Role = "bot"
)

// Message is one entry of the chat log.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Evidence is a retrieved snippet and the document it came from.
type Evidence struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Answer is a validated response to a question.
type Answer struct {
	Text    string     `json:"answer"`
	Sources []Evidence `json:"sources"`
}

// Document is the full content of a source document.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
