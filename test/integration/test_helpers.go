//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-messenger/internal/config"
	"go-messenger/internal/event"
	"go-messenger/internal/handler"
	"go-messenger/internal/middleware"
	"go-messenger/internal/model"
	"go-messenger/internal/repository"
	"go-messenger/internal/router"
	"go-messenger/internal/security"
	"go-messenger/internal/service"
	"go-messenger/internal/token"
)

// testScryptN keeps key derivation fast; production uses
// security.DefaultScryptN.
const testScryptN = 1024

type testEnv struct {
	server *httptest.Server
	users  *repository.MemoryUserStore
	hasher *security.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	signer, err := token.NewSigner([]byte("integration-test-secret"))
	require.NoError(t, err)
	hasher, err := security.NewHasher(testScryptN)
	require.NoError(t, err)

	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	messages := repository.NewMemoryMessageStore()

	sessionService := service.NewSessionService(sessions, time.Hour)
	authService := service.NewAuthService(users, sessionService, messages, signer, hasher, event.NewBus())
	messageService := service.NewMessageService(messages, users)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Message: handler.NewMessageHandler(messageService),
		User:    handler.NewUserHandler(authService),
	}

	cfg := &config.Config{
		RequestTimeout:   10 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, handlers))
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, hasher: hasher}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, cookie *http.Cookie) (*http.Response, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader([]byte{})
	} else {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func (e *testEnv) signup(t *testing.T, username string, password string) model.PublicUser {
	t.Helper()

	resp, envelope := e.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username":         username,
		"first_name":       "Test",
		"last_name":        "User",
		"password":         password,
		"password_confirm": password,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	var user model.PublicUser
	require.NoError(t, json.Unmarshal(envelope.Data, &user))
	return user
}

// login returns the auth cookie issued on success.
func (e *testEnv) login(t *testing.T, username string, password string) *http.Cookie {
	t.Helper()

	resp, envelope := e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie
}

// createAdmin seeds an administrator account directly; signup only ever
// produces regular users.
func (e *testEnv) createAdmin(t *testing.T, username string, password string) model.User {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		FirstName:    "Site",
		LastName:     "Admin",
		PasswordHash: hash,
		Active:       true,
		Admin:        true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.users.Create(context.Background(), admin))
	return admin
}

func authCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	return nil
}
