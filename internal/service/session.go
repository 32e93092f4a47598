package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBadAccessCode  = errors.New("access code does not match")
	ErrSessionInvalid = errors.New("session token is invalid or expired")
)

// Session is one dashboard session issued in exchange for the shared access
// code. The token is opaque; possession is the whole credential. This is a
// deployment placeholder, not a security boundary.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRegistry issues and validates dashboard session tokens. Safe for
// concurrent use.
type SessionRegistry struct {
	mu         sync.Mutex
	accessCode string
	ttl        time.Duration
	sessions   map[string]time.Time
	now        func() time.Time
}

func NewSessionRegistry(accessCode string, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionRegistry{
		accessCode: accessCode,
		ttl:        ttl,
		sessions:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Login exchanges the shared access code for a fresh session token.
func (r *SessionRegistry) Login(accessCode string) (*Session, error) {
	if r.accessCode == "" || accessCode != r.accessCode {
		return nil, ErrBadAccessCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	token := uuid.New().String()
	expires := r.now().Add(r.ttl)
	r.sessions[token] = expires
	return &Session{Token: token, ExpiresAt: expires}, nil
}

// Validate checks a token. Expired tokens are dropped on sight.
func (r *SessionRegistry) Validate(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires, ok := r.sessions[token]
	if !ok {
		return ErrSessionInvalid
	}
	if r.now().After(expires) {
		delete(r.sessions, token)
		return ErrSessionInvalid
	}
	return nil
}

func (r *SessionRegistry) pruneLocked() {
	now := r.now()
	for token, expires := range r.sessions {
		if now.After(expires) {
			delete(r.sessions, token)
		}
	}
}
