package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/counsel/internal/session"
	"github.com/patrickmn/go-cache"
)

const sessionCookie = "counsel_session"

// Sessions keeps one chat session per browser in memory. Idle sessions expire.
type Sessions struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessions creates a store whose sessions expire after ttl without use.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{cache: cache.New(ttl, 10*time.Minute), ttl: ttl}
}

// Get returns the session for id and extends its lifetime.
func (s *Sessions) Get(id string) (*session.Session, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	sess := x.(*session.Session)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Create starts a new session and returns its id.
func (s *Sessions) Create() (string, *session.Session) {
	id := uuid.NewString()
	sess := session.New()
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return id, sess
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

// sessionFor returns the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}
	id, sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessions.ttl.Seconds()),
	})
	return sess
}
