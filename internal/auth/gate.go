package auth

import (
	"errors"
	"strings"
)

// ErrUnauthorized is returned for a missing identity or one outside the
// allowed domain. The two cases are deliberately indistinguishable.
var ErrUnauthorized = errors.New("login required")

// Identity is the authenticated user as reported by the login provider.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Gate admits identities whose email belongs to a single domain.
type Gate struct {
	allowedDomain string
}

// NewGate returns a Gate for domain. The comparison is case-insensitive.
func NewGate(domain string) *Gate {
	return &Gate{allowedDomain: strings.ToLower(strings.TrimSpace(domain))}
}

// AllowedDomain returns the normalized domain the gate admits.
func (g *Gate) AllowedDomain() string {
	return g.allowedDomain
}

// Allow returns nil when id may use the registry, ErrUnauthorized otherwise.
func (g *Gate) Allow(id *Identity) error {
	if id == nil {
		return ErrUnauthorized
	}
	if !g.DomainAllowed(id.Email) {
		return ErrUnauthorized
	}
	return nil
}

// DomainAllowed reports whether email's domain (after the last "@") is the
// allowed domain.
func (g *Gate) DomainAllowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || g.allowedDomain == "" {
		return false
	}
	return email[at+1:] == g.allowedDomain
}
