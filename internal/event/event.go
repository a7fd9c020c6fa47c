package event

type Type string

const (
	TypeLoginSucceeded  Type = "auth.login_succeeded"
	TypeLoginFailed     Type = "auth.login_failed"
	TypeInvalidToken    Type = "auth.invalid_token"
	TypeSessionExpired  Type = "auth.session_expired"
	TypeSessionsRevoked Type = "auth.sessions_revoked"
	TypePasswordChanged Type = "auth.password_changed"
	TypeAccountDisabled Type = "auth.account_disabled"
	TypeAccountDeleted  Type = "auth.account_deleted"
	TypePrivilegeDenied Type = "auth.privilege_denied"
	TypeSignupCompleted Type = "auth.signup_completed"
)

// Event is a security-relevant occurrence in the auth core. Delivery is
// best-effort; the login path never blocks on a slow consumer.
type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
