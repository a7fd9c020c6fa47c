//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-messenger/internal/model"
)

func TestSignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	env.signup(t, "alice", "correct-horse-battery")

	resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &login))
	require.Equal(t, "alice", login.User.Username)
	require.WithinDuration(t, time.Now().Add(time.Hour), time.Unix(login.ExpiresAt, 0), 5*time.Second)

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.WithinDuration(t, time.Unix(login.ExpiresAt, 0), cookie.Expires, time.Second)

	t.Run("me with cookie", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var me model.PublicUser
		require.NoError(t, json.Unmarshal(envelope.Data, &me))
		require.Equal(t, "alice", me.Username)
	})

	t.Run("me without cookie", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.False(t, envelope.Success)
		require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
	})

	t.Run("me with tampered cookie", func(t *testing.T) {
		mutated := []byte(cookie.Value)
		last := len(mutated) - 1
		if mutated[last] == 'A' {
			mutated[last] = 'B'
		} else {
			mutated[last] = 'A'
		}

		forged := &http.Cookie{Name: cookie.Name, Value: string(mutated)}
		resp, _ := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, forged)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", "correct-horse-battery")

	t.Run("wrong password", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
		require.Nil(t, authCookie(resp))
	})

	t.Run("unknown user looks identical", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "nobody",
			"password": "wrong",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
	})

	t.Run("duplicate signup", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
			"username":         "alice",
			"first_name":       "Other",
			"last_name":        "Person",
			"password":         "some-password",
			"password_confirm": "some-password",
		}, nil)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "ALREADY_EXISTS", envelope.Error.Code)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", "correct-horse-battery")
	cookie := env.login(t, "alice", "correct-horse-battery")

	resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	// The response orders the cookie dropped.
	cleared := authCookie(resp)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	// The session is dead server-side regardless of what the client kept.
	resp, envelope = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", "old-password")

	laptop := env.login(t, "alice", "old-password")
	phone := env.login(t, "alice", "old-password")

	resp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/change-password", map[string]string{
		"current_password": "old-password",
		"new_password":     "new-password",
		"repeat_password":  "new-password",
	}, laptop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	// Every device is logged out, the one that changed the password included.
	for _, cookie := range []*http.Cookie{laptop, phone} {
		resp, _ := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "old-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.login(t, "alice", "new-password")
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t)
	bob := env.signup(t, "bob", "bobs-password")
	env.signup(t, "alice", "correct-horse-battery")
	env.createAdmin(t, "root", "admin-password")

	aliceCookie := env.login(t, "alice", "correct-horse-battery")
	adminCookie := env.login(t, "root", "admin-password")

	t.Run("regular user is forbidden", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodGet, "/api/v1/admin/users", nil, aliceCookie)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, "FORBIDDEN", envelope.Error.Code)
	})

	t.Run("forbidden delete has no effect", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/v1/admin/users/"+bob.ID, nil, aliceCookie)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		env.login(t, "bob", "bobs-password")
	})

	t.Run("admin lists users", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodGet, "/api/v1/admin/users", nil, adminCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var users []model.PublicUser
		require.NoError(t, json.Unmarshal(envelope.Data, &users))
		require.Len(t, users, 3)
	})

	t.Run("admin disables an account", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPut, "/api/v1/admin/users/"+bob.ID+"/active",
			map[string]bool{"active": false}, adminCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		loginResp, envelope := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "bob",
			"password": "bobs-password",
		}, nil)
		require.Equal(t, http.StatusForbidden, loginResp.StatusCode)
		require.Equal(t, "FORBIDDEN", envelope.Error.Code)
	})

	t.Run("admin deletes an account", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/v1/admin/users/"+bob.ID, nil, adminCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		loginResp, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "bob",
			"password": "bobs-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
	})
}

func TestMessagingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", "correct-horse-battery")
	env.signup(t, "bob", "bobs-password")

	aliceCookie := env.login(t, "alice", "correct-horse-battery")
	bobCookie := env.login(t, "bob", "bobs-password")

	resp, envelope := env.do(t, http.MethodPost, "/api/v1/messages/", map[string]string{
		"recipient": "bob",
		"title":     "lunch",
		"body":      "noon at the usual place?",
	}, aliceCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sent model.Message
	require.NoError(t, json.Unmarshal(envelope.Data, &sent))

	t.Run("recipient sees the message", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodGet, "/api/v1/messages/", nil, bobCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var inbox []model.Message
		require.NoError(t, json.Unmarshal(envelope.Data, &inbox))
		require.Len(t, inbox, 1)
		require.Equal(t, "lunch", inbox[0].Title)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		resp, envelope := env.do(t, http.MethodPost, "/api/v1/messages/", map[string]string{
			"recipient": "charlie",
			"title":     "hello",
			"body":      "anyone there?",
		}, aliceCookie)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "NOT_FOUND", envelope.Error.Code)
	})

	t.Run("sender cannot delete a delivered message", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/v1/messages/"+sent.ID, nil, aliceCookie)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("recipient deletes the message", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/v1/messages/"+sent.ID, nil, bobCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, envelope := env.do(t, http.MethodGet, "/api/v1/messages/", nil, bobCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var inbox []model.Message
		require.NoError(t, json.Unmarshal(envelope.Data, &inbox))
		require.Empty(t, inbox)
	})
}
