// Package admin implements the admin observer surface (C6): JWT-gated
// authentication, a rooms-stats subscription set, and admin-spectate
// membership mirroring the public spectator audience (spec.md §4.5).
package admin

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth issues and verifies the admin bearer token used by the admin
// WebSocket channel's handshake and by /api/admin/login.
type Auth struct {
	secret   []byte
	username string
	password string
}

// NewAuth constructs an Auth from the configured admin credentials and
// signing secret.
func NewAuth(username, password, secret string) *Auth {
	return &Auth{secret: []byte(secret), username: username, password: password}
}

// CheckCredentials reports whether username/password match the configured
// admin account, comparing both fields in constant time so a failed login
// can't be timed to learn how many leading bytes matched.
func (a *Auth) CheckCredentials(username, password string) bool {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return usernameOK && passwordOK
}

// IssueToken mints a 24-hour HS256 bearer token for the admin subject
// (spec.md §6.3 POST /api/admin/login).
func (a *Auth) IssueToken(username string) (string, error) {
	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now,
		"nbf": now,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken validates a bearer token presented at the admin WebSocket
// handshake or an authenticated HTTP request.
func (a *Auth) VerifyToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
