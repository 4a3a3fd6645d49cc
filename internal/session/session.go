package session

import (
	"errors"
	"sync"
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrEmptyToken    = errors.New("session token is empty")
)

// Session carries the operator identity and API token. It is created at login
// and handed to every component that talks to the API; Close ends it for all
// of them at once.
type Session struct {
	operator string
	token    string
	closed   bool
	mu       sync.RWMutex
}

func New(token, operator string) (*Session, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	return &Session{token: token, operator: operator}, nil
}

func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	return s.token, nil
}

func (s *Session) Operator() string {
	return s.operator
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.token = ""
}
