package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-messenger/internal/event"
	"go-messenger/internal/model"
	"go-messenger/internal/security"
	"go-messenger/internal/token"
)

// maxFieldLen caps every user-supplied text field, matching the column width
// in the schema.
const maxFieldLen = 200

// AuthService implements login, signup, password change, the per-request
// authentication decision, and the admin-only user management operations.
type AuthService struct {
	users    UserStore
	sessions *SessionService
	messages MessageStore
	signer   *token.Signer
	hasher   *security.Hasher
	bus      event.Bus
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions *SessionService,
	messages MessageStore,
	signer *token.Signer,
	hasher *security.Hasher,
	bus event.Bus,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		messages: messages,
		signer:   signer,
		hasher:   hasher,
		bus:      bus,
		now:      time.Now,
	}
}

// Signup creates a fresh, non-admin, active account.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.PublicUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	fields := []string{req.Username, req.FirstName, req.LastName, req.Password, req.PasswordConfirm}
	for _, f := range fields {
		if f == "" {
			return model.PublicUser{}, model.ErrInvalidInput
		}
		if len(f) > maxFieldLen {
			return model.PublicUser{}, model.ErrInvalidInput
		}
	}
	if req.Password != req.PasswordConfirm {
		return model.PublicUser{}, model.ErrInvalidInput
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return model.PublicUser{}, err
	}
	if exists {
		return model.PublicUser{}, model.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Active:       true,
		Admin:        false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, err
	}

	s.publish(event.TypeSignupCompleted, user.ID, map[string]string{"username": user.Username})
	return user.Public(), nil
}

// Login verifies the password, rejects disabled accounts, creates a session,
// and returns it together with a signed token naming it.
func (s *AuthService) Login(ctx context.Context, username string, password string, ip string, userAgent string) (model.Session, string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		s.publish(event.TypeLoginFailed, "", map[string]string{"username": username, "ip": ip})
		return model.Session{}, "", model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, "", err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.Error("stored password digest unreadable", "user_id", user.ID, "error", err)
		return model.Session{}, "", model.ErrInvalidCredentials
	}
	if !ok {
		s.publish(event.TypeLoginFailed, user.ID, map[string]string{"username": username, "ip": ip})
		return model.Session{}, "", model.ErrInvalidCredentials
	}

	if !user.Active {
		s.publish(event.TypeLoginFailed, user.ID, map[string]string{"username": username, "reason": "disabled"})
		return model.Session{}, "", model.ErrAccountDisabled
	}

	sess, err := s.sessions.Create(ctx, user.ID, ip, userAgent)
	if err != nil {
		return model.Session{}, "", err
	}

	tok, err := s.signer.Sign(token.Claims{Session: sess.ID, Exp: sess.ExpiresAt.Unix()})
	if err != nil {
		_ = s.sessions.Terminate(ctx, sess.ID)
		return model.Session{}, "", err
	}

	s.publish(event.TypeLoginSucceeded, user.ID, map[string]string{"session_id": sess.ID, "ip": ip})
	return sess, tok, nil
}

// Logout terminates the named session; it is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Terminate(ctx, sessionID)
}

// ChangePassword replaces the user's digest after verifying the current
// password, then terminates every session the user owns so outstanding
// tokens stop resolving.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" || req.RepeatPassword == "" {
		return model.ErrInvalidInput
	}
	if len(req.NewPassword) > maxFieldLen || len(req.CurrentPassword) > maxFieldLen {
		return model.ErrInvalidInput
	}
	if req.NewPassword != req.RepeatPassword {
		return model.ErrInvalidInput
	}
	if req.NewPassword == req.CurrentPassword {
		return model.ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.sessions.TerminateAllForUser(ctx, user.ID); err != nil {
		return err
	}

	s.publish(event.TypePasswordChanged, user.ID, nil)
	s.publish(event.TypeSessionsRevoked, user.ID, map[string]string{"reason": "password_changed"})
	return nil
}

// Authenticate runs the full per-request check chain over the presented
// token. Every rejection collapses to an AuthResult whose state names the
// first failed step; dead sessions discovered along the way are deleted
// eagerly.
func (s *AuthService) Authenticate(ctx context.Context, tok string) model.AuthResult {
	if strings.TrimSpace(tok) == "" {
		return model.AuthResult{State: model.AuthStateNoCredential}
	}

	claims, err := s.signer.Verify(tok, s.now())
	if err != nil {
		if errors.Is(err, token.ErrInvalidSignature) {
			s.publish(event.TypeInvalidToken, "", map[string]string{"reason": "signature"})
		}
		return model.AuthResult{State: model.AuthStateInvalidToken}
	}

	sess, err := s.sessions.Lookup(ctx, claims.Session)
	if err != nil {
		if !errors.Is(err, model.ErrSessionNotFound) {
			slog.Error("session lookup failed", "error", err)
		}
		return model.AuthResult{State: model.AuthStateUnknownSession}
	}

	// Lookup already applies lazy expiry; this re-check catches a session
	// that crossed its expiry between the two reads.
	if sess.Expired(s.now()) {
		_ = s.sessions.Terminate(ctx, sess.ID)
		s.publish(event.TypeSessionExpired, sess.UserID, map[string]string{"session_id": sess.ID})
		return model.AuthResult{State: model.AuthStateExpiredSession}
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		_ = s.sessions.Terminate(ctx, sess.ID)
		return model.AuthResult{State: model.AuthStateUnknownSession}
	}
	if !user.Active {
		_ = s.sessions.Terminate(ctx, sess.ID)
		return model.AuthResult{State: model.AuthStateUnknownSession}
	}

	return model.AuthResult{State: model.AuthStateAuthenticated, User: user, Session: sess}
}

// RequireAdmin refines an authenticated result: non-admins are rejected
// without revealing anything about the guarded resource.
func (s *AuthService) RequireAdmin(res model.AuthResult) error {
	if !res.Authenticated() {
		return model.ErrUnauthorized
	}
	if !res.User.Admin {
		s.publish(event.TypePrivilegeDenied, res.User.ID, nil)
		return model.ErrInsufficientPrivilege
	}
	return nil
}

// ResolveUser returns the owner of an authenticated session, for callers
// that need display data.
func (s *AuthService) ResolveUser(ctx context.Context, sess model.Session) (model.User, error) {
	return s.users.FindByID(ctx, sess.UserID)
}

// ListUsers returns every account, digests stripped.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

// SetUserActive flips the account's active flag. Disabling also terminates
// every session so the account is locked out immediately.
func (s *AuthService) SetUserActive(ctx context.Context, userID string, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return err
	}

	if !active {
		if err := s.sessions.TerminateAllForUser(ctx, userID); err != nil {
			return err
		}
		s.publish(event.TypeAccountDisabled, userID, nil)
		s.publish(event.TypeSessionsRevoked, userID, map[string]string{"reason": "account_disabled"})
	}
	return nil
}

// DeleteUser removes the account and cascades: messages first, then
// sessions, then the user row.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	if err := s.messages.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.TerminateAllForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.publish(event.TypeAccountDeleted, userID, nil)
	return nil
}

func (s *AuthService) publish(t event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		ActorID:   actorID,
	})
}
