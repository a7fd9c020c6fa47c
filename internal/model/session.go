package model

import "time"

// Session is a server-side record of a successful login. IP and UserAgent are
// audit metadata only; they are recorded at creation and never enforced at
// verification time.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is dead at the given instant. A session
// whose expiry equals now is already expired.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
