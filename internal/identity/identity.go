// Package identity supplies the acting user to the rest of the portal.
package identity

import (
	"sync"
)

type Event string

const (
	SignedIn       Event = "signed_in"
	TokenRefreshed Event = "token_refreshed"
	SignedOut      Event = "signed_out"
)

// Session is delivered to subscribers on every change. UserID is empty
// after SignedOut.
type Session struct {
	UserID string
	Event  Event
}

// Provider reports who is acting and when that changes.
type Provider interface {
	CurrentUserID() (string, bool)
	OnSessionChange(fn func(Session)) (cancel func())
}

// Static is a Provider with a fixed user. It never changes.
type Static string

func (s Static) CurrentUserID() (string, bool) { return string(s), s != "" }

func (Static) OnSessionChange(func(Session)) func() { return func() {} }

// Sessions is a Provider backed by HS256 session tokens.
type Sessions struct {
	Secret string

	mu     sync.Mutex
	userID string
	next   int
	subs   map[int]func(Session)
}

func NewSessions(secret string) *Sessions {
	return &Sessions{Secret: secret}
}

func (s *Sessions) CurrentUserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != ""
}

func (s *Sessions) OnSessionChange(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = map[int]func(Session){}
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SignIn validates token and makes its subject the current user.
func (s *Sessions) SignIn(token string) (Session, error) {
	return s.set(token, SignedIn)
}

// Refresh replaces the session token. The subject may differ from the
// previous one.
func (s *Sessions) Refresh(token string) (Session, error) {
	return s.set(token, TokenRefreshed)
}

func (s *Sessions) SignOut() Session {
	s.mu.Lock()
	s.userID = ""
	subs := s.snapshot()
	s.mu.Unlock()
	sess := Session{Event: SignedOut}
	notify(subs, sess)
	return sess
}

func (s *Sessions) set(token string, ev Event) (Session, error) {
	userID, err := ParseToken(s.Secret, token)
	if err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	s.userID = userID
	subs := s.snapshot()
	s.mu.Unlock()
	sess := Session{UserID: userID, Event: ev}
	notify(subs, sess)
	return sess, nil
}

// snapshot must be called with mu held.
func (s *Sessions) snapshot() []func(Session) {
	out := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Session), sess Session) {
	for _, fn := range subs {
		fn(sess)
	}
}
