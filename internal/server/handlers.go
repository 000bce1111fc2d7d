package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/hyperjump/counsel/internal/highlight"
	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/internal/session"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

type messageView struct {
	Role string
	HTML template.HTML
}

type evidenceView struct {
	Source string
	Text   template.HTML
}

type modalView struct {
	Open    bool
	Loading bool
	Title   string
	Content template.HTML
}

type pageData struct {
	Messages  []messageView
	Evidence  []evidenceView
	LastQuery string
	Input     string
	Loading   bool
	Modal     modalView
}

func (s *Server) controller(sess *session.Session) *session.Controller {
	return session.NewController(sess, s.api, s.logger)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	data := s.pageData(sess.Snapshot())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

// handleAsk records the question and redirects at once; the page shows the
// loading state and refreshes until the answer settles. The backend call is
// detached from the browser request so a closed tab still settles the session.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	if done, ok := s.controller(sess).StartQuestion(ctx, r.PostForm.Get("question")); ok {
		s.track(done)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := context.WithoutCancel(r.Context())
	if done, ok := s.controller(sess).StartDocument(ctx, r.PostForm.Get("source")); ok {
		s.track(done)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.controller(s.sessionFor(w, r)).CloseModal()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type sessionState struct {
	Messages  []models.Message  `json:"messages"`
	LastQuery string            `json:"last_query"`
	Evidence  []models.Evidence `json:"evidence"`
	Loading   bool              `json:"loading"`
	Modal     struct {
		State   string `json:"state"`
		Title   string `json:"title,omitempty"`
		Content string `json:"content,omitempty"`
	} `json:"modal"`
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	snap := s.sessionFor(w, r).Snapshot()
	state := sessionState{
		Messages:  snap.Messages,
		LastQuery: snap.LastQuery,
		Evidence:  snap.Evidence,
		Loading:   snap.Loading,
	}
	if state.Messages == nil {
		state.Messages = []models.Message{}
	}
	if state.Evidence == nil {
		state.Evidence = []models.Evidence{}
	}
	state.Modal.State = snap.Modal.State.String()
	state.Modal.Title = snap.Modal.Title
	state.Modal.Content = snap.Modal.Content
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) pageData(snap session.Snapshot) pageData {
	data := pageData{
		LastQuery: snap.LastQuery,
		Input:     snap.Input,
		Loading:   snap.Loading,
	}
	for _, m := range snap.Messages {
		view := messageView{Role: string(m.Role)}
		if m.Role == models.RoleBot {
			view.HTML = s.renderMarkdown(m.Text)
		} else {
			view.HTML = template.HTML(strings.ReplaceAll(template.HTMLEscapeString(m.Text), "\n", "<br>"))
		}
		data.Messages = append(data.Messages, view)
	}
	for _, ev := range snap.Evidence {
		data.Evidence = append(data.Evidence, evidenceView{
			Source: ev.Source,
			Text:   highlight.HTML(ev.Text, snap.LastQuery),
		})
	}
	if snap.Modal.Open() {
		data.Modal = modalView{
			Open:    true,
			Loading: snap.Modal.Loading(),
			Title:   snap.Modal.Title,
			Content: highlight.HTML(snap.Modal.Content, snap.LastQuery),
		}
	}
	return data
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
