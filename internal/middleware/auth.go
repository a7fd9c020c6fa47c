package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go-messenger/internal/model"
)

// AuthCookieName is the cookie carrying the signed token.
const AuthCookieName = "auth"

type authenticator interface {
	Authenticate(ctx context.Context, tok string) model.AuthResult
	RequireAdmin(res model.AuthResult) error
}

type contextKey string

const authResultContextKey contextKey = "auth_result"

type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth runs the authentication check chain over the auth cookie and
// rejects anything short of a fully authenticated session.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := ""
		if cookie, err := r.Cookie(AuthCookieName); err == nil {
			tok = cookie.Value
		}

		res := m.auth.Authenticate(r.Context(), tok)
		if !res.Authenticated() {
			writeUnauthorized(w, res.State)
			return
		}

		ctx := context.WithValue(r.Context(), authResultContextKey, res)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin refines RequireAuth; it must run after it in the chain.
// Non-admins get a generic forbidden response that does not reveal what the
// route would have done.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := ResultFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, model.AuthStateNoCredential)
			return
		}

		if err := m.auth.RequireAdmin(res); err != nil {
			writeForbidden(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ResultFromContext returns the authentication result RequireAuth stored on
// the request context.
func ResultFromContext(ctx context.Context) (model.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey).(model.AuthResult)
	return res, ok
}

func writeUnauthorized(w http.ResponseWriter, state model.AuthState) {
	message := "you must log in to access this resource"
	if state == model.AuthStateUnknownSession || state == model.AuthStateExpiredSession {
		message = "session expired, please log in again"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "FORBIDDEN",
			Message: "this resource is currently unavailable",
		},
	})
}
