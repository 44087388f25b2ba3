package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the session token claims
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims
func (c *Claims) Identity() *Identity {
	return &Identity{Email: c.Email, Name: c.Name}
}

// SessionManager signs and validates session tokens
type SessionManager struct {
	secret string
	issuer string
	expiry time.Duration
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret, issuer string, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret: secret,
		issuer: issuer,
		expiry: expiry,
	}
}

// Expiry returns the configured session lifetime
func (m *SessionManager) Expiry() time.Duration {
	return m.expiry
}

// ValidateConfig checks the session configuration
func (m *SessionManager) ValidateConfig() error {
	if m.secret == "" {
		return errors.New("session secret cannot be empty")
	}
	if m.issuer == "" {
		return errors.New("session issuer cannot be empty")
	}
	if m.expiry <= 0 {
		return errors.New("session expiry must be positive")
	}
	return nil
}

// GenerateToken creates a new session token for id
func (m *SessionManager) GenerateToken(id Identity) (string, error) {
	if strings.TrimSpace(id.Email) == "" {
		return "", errors.New("email is required")
	}
	now := time.Now()
	claims := &Claims{
		Email: strings.ToLower(id.Email),
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   strings.ToLower(id.Email),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// ValidateToken validates and parses a session token
func (m *SessionManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
