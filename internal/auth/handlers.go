package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// stateCookie carries the OAuth state nonce between /login and /auth
const stateCookie = "oauth_state"

// Handlers serves the login, callback and logout endpoints
type Handlers struct {
	Provider Provider
	Sessions *SessionManager
	Gate     *Gate
	Logger   *slog.Logger
}

// Login redirects to the provider's consent page
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the handshake and issues a session cookie for users in
// the allowed domain
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		h.Logger.Warn("oauth state mismatch")
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}
	clearCookie(w, stateCookie)

	if e := r.URL.Query().Get("error"); e != "" {
		h.Logger.Warn("oauth provider returned error", "error", e)
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	id, err := h.Provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.Logger.Warn("oauth exchange failed", "error", err)
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	if !h.Gate.DomainAllowed(id.Email) {
		h.Logger.Info("login rejected for domain", "email", id.Email, "allowed_domain", h.Gate.AllowedDomain())
		clearCookie(w, SessionCookie)
		http.Error(w, "Not allowed (wrong email domain).", http.StatusForbidden)
		return
	}

	token, err := h.Sessions.GenerateToken(*id)
	if err != nil {
		h.Logger.Error("issue session token", "error", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, r, token, h.Sessions.Expiry())
	h.Logger.Info("user logged in", "email", id.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, SessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
