package domain

import "github.com/google/uuid"

// Session holds one collaborator's conversation. It lives only in memory and
// is passed explicitly to each call; retrieval never reads it.
type Session struct {
	ID    string
	Turns []Turn
}

// NewSession creates an empty session with a fresh identifier.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// Append records a turn.
func (s *Session) Append(role Role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content})
}

// Clear drops the conversation history but keeps the session identity.
func (s *Session) Clear() {
	s.Turns = nil
}
