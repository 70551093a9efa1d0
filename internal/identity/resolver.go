// Package identity resolves the caller behind each request to a user id.
// Every handler takes that id explicitly; nothing downstream knows or cares
// how it was produced, so swapping JWT verification for anything else is a
// wiring change only.
package identity

import (
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when no caller identity can be derived
// from the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver derives the caller's user id from an incoming request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// StaticResolver answers every request with one fixed user id. Development
// and tests only; it replaces the hardcoded placeholder identity that a
// real deployment must never ship with.
type StaticResolver struct {
	UserID string
}

// Resolve implements Resolver.
func (s StaticResolver) Resolve(*http.Request) (string, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return "", ErrUnauthenticated
	}
	return s.UserID, nil
}

// BearerToken extracts the bearer credential from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
