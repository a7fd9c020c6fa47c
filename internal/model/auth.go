package model

// AuthState is the outcome of running a request through the authentication
// check chain. Every state except AuthStateAuthenticated is a rejection.
type AuthState string

const (
	// AuthStateNoCredential means the request carried no token at all.
	AuthStateNoCredential AuthState = "no_credential"
	// AuthStateInvalidToken means a token was presented but its format or
	// signature did not check out.
	AuthStateInvalidToken AuthState = "invalid_token"
	// AuthStateUnknownSession means the token verified but the session it
	// names does not exist (never created, terminated, or lazily expired).
	AuthStateUnknownSession AuthState = "unknown_session"
	// AuthStateExpiredSession means the session record was found but its
	// expiry had already elapsed at the instant of the check.
	AuthStateExpiredSession AuthState = "expired_session"
	// AuthStateAuthenticated means every check passed.
	AuthStateAuthenticated AuthState = "authenticated"
)

// AuthResult carries the state reached by the check chain plus, when
// authenticated, the resolved user and the live session.
type AuthResult struct {
	State   AuthState
	User    User
	Session Session
}

func (r AuthResult) Authenticated() bool {
	return r.State == AuthStateAuthenticated
}
