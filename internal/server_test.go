package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/config"
	"powder-inventory/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	id  *auth.Identity
	err error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*auth.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.id, nil
}

func testConfig() *config.Config {
	return &config.Config{
		StoreBackend:  store.BackendMemory,
		SessionSecret: "test-session-secret",
		SessionExpiry: time.Hour,
		AllowedDomain: "andrew.cmu.edu",
		EnableMetrics: true,
	}
}

func newTestServer(t *testing.T, st store.Store, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := newServer(cfg, st, &fakeProvider{id: &auth.Identity{Email: "jdoe@andrew.cmu.edu"}}, logger)
	require.NoError(t, err)
	return s
}

func sessionToken(t *testing.T, s *Server, email string) string {
	t.Helper()
	token, err := s.Sessions.GenerateToken(auth.Identity{Email: email, Name: "Test User"})
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestNewServer_RejectsBadSessionConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = ""
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := newServer(cfg, store.NewMemory(), &fakeProvider{}, logger)
	assert.Error(t, err)
}

func TestNewServer_FallsBackToBrokenStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = store.BackendSheets
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := NewServer(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer s.Close(context.Background())

	req := httptest.NewRequest("GET", "/assets", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, s, "jdoe@andrew.cmu.edu"))
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest("GET", "/login", nil))
	require.Equal(t, http.StatusFound, w.Code)

	var state *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.Contains(t, w.Header().Get("Location"), url.QueryEscape(state.Value))

	req := httptest.NewRequest("GET", "/auth?code=abc&state="+url.QueryEscape(state.Value), nil)
	req.AddCookie(state)
	w = httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jdoe@andrew.cmu.edu")
}

func TestLoginFlow_WrongDomain(t *testing.T) {
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := newServer(cfg, store.NewMemory(), &fakeProvider{id: &auth.Identity{Email: "someone@gmail.com"}}, logger)
	require.NoError(t, err)

	state := &http.Cookie{Name: "oauth_state", Value: "nonce"}
	req := httptest.NewRequest("GET", "/auth?code=abc&state=nonce", nil)
	req.AddCookie(state)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Not allowed (wrong email domain).")
}

func TestLoginFlow_ExchangeFails(t *testing.T) {
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := newServer(cfg, store.NewMemory(), &fakeProvider{err: errors.New("bad code")}, logger)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth?code=abc&state=nonce", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "nonce"})
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest("GET", "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	req := httptest.NewRequest("GET", "/assets", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, s, "jdoe@andrew.cmu.edu"))
	s.Router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, name := range []string{
		"http_requests_total",
		"asset_store_calls_total",
		"asset_registry_operations_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	s := newTestServer(t, store.NewMemory(), func(c *config.Config) { c.EnableMetrics = false })

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
