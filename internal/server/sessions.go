package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jalolov/crm-tizimi/internal/model"
)

// sessionCookie is the name of the cookie carrying the session token.
const sessionCookie = "crm_session"

// session is the logged-in identity attached to a token.
type session struct {
	UserID   int64
	Username string
	Role     model.Role
	FullName string
}

// sessionStore keeps active sessions in memory. A restart logs
// everyone out, which is acceptable for this deployment.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]session)}
}

// Create registers a new session for a user and returns its token.
func (s *sessionStore) Create(u model.User) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = session{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		FullName: u.FullName,
	}
	s.mu.Unlock()
	return token
}

// Get looks up the session for a token.
func (s *sessionStore) Get(token string) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Delete ends a session. Unknown tokens are a no-op.
func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Rename updates the cached username after a profile change so the
// session stays consistent with the database.
func (s *sessionStore) Rename(token, username string) {
	s.mu.Lock()
	if sess, ok := s.sessions[token]; ok {
		sess.Username = username
		s.sessions[token] = sess
	}
	s.mu.Unlock()
}
