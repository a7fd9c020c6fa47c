package service

import (
	"context"
	"fmt"
	"time"

	"go-messenger/internal/model"
	"go-messenger/internal/security"
)

// DefaultSessionDuration is applied when no duration is configured.
const DefaultSessionDuration = time.Hour

// SessionService owns the lifecycle of login sessions: creation with an
// unguessable identifier, lookup with lazy expiry, and termination.
type SessionService struct {
	store    SessionStore
	duration time.Duration
	now      func() time.Time
}

func NewSessionService(store SessionStore, duration time.Duration) *SessionService {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionService{
		store:    store,
		duration: duration,
		now:      time.Now,
	}
}

// Create persists a new session for the user and returns it. Expiry is
// truncated to whole seconds so the stored value, the token claim, and the
// cookie Expires attribute all agree.
func (s *SessionService) Create(ctx context.Context, userID string, ip string, userAgent string) (model.Session, error) {
	id, err := security.RandomID("")
	if err != nil {
		return model.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	sess := model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.duration).Truncate(time.Second),
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// Lookup fetches a session by id. An expired record is deleted on the spot
// and reported as not found; storage never accumulates dead sessions beyond
// their first access.
func (s *SessionService) Lookup(ctx context.Context, id string) (model.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}

	if sess.Expired(s.now()) {
		_ = s.store.Delete(ctx, id)
		return model.Session{}, model.ErrSessionNotFound
	}
	return sess, nil
}

// Terminate deletes the session. Deleting a session that no longer exists is
// not an error.
func (s *SessionService) Terminate(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// TerminateAllForUser drops every session the user owns. Called on password
// change, account deactivation, and account deletion.
func (s *SessionService) TerminateAllForUser(ctx context.Context, userID string) error {
	return s.store.DeleteAllForUser(ctx, userID)
}

// Duration returns the configured session lifetime.
func (s *SessionService) Duration() time.Duration {
	return s.duration
}
