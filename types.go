package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Headers is the read side of a request header set. http.Header satisfies it.
type Headers interface {
	Get(key string) string
}

// HeaderFunc adapts a lookup function into Headers
type HeaderFunc func(key string) string

// Get satisfies the Headers interface.
func (f HeaderFunc) Get(key string) string {
	if f == nil {
		return ""
	}
	return f(key)
}

// UserDirectory looks up accounts by name or by name-or-email.
// Both lookups are case-insensitive and return ErrIdentityNotFound on miss.
type UserDirectory interface {
	FindByName(ctx context.Context, name string) (*User, error)
	FindByNameOrEmail(ctx context.Context, query string) (*User, error)
}

// UserLoader reloads the user behind an established session
type UserLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// SessionMarker registers a resolved user as the authenticated session
// identity. The host framework owns the session; this is the call contract.
type SessionMarker interface {
	MarkAuthenticated(ctx context.Context, user *User) error
}

// SessionMarkerFunc adapts a function to the SessionMarker interface.
type SessionMarkerFunc func(ctx context.Context, user *User) error

// MarkAuthenticated satisfies the SessionMarker interface.
func (f SessionMarkerFunc) MarkAuthenticated(ctx context.Context, user *User) error {
	if f == nil {
		return nil
	}
	return f(ctx, user)
}

// BindVerifier checks a password against an external directory, e.g. an
// LDAP bind. credential is the reference stored on the account.
type BindVerifier interface {
	Bind(ctx context.Context, credential, password string) (bool, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type noopSessionMarker struct{}

func (noopSessionMarker) MarkAuthenticated(context.Context, *User) error {
	return nil
}

func normalizeSessionMarker(m SessionMarker) SessionMarker {
	if m == nil {
		return noopSessionMarker{}
	}
	return m
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
