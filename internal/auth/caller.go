// Package auth resolves callers to identities and enforces role checks.
package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

type contextKey string

const callerContextKey contextKey = "caller"

// Caller is the resolved identity behind a request. The zero value is the
// anonymous caller.
type Caller struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
}

// Anonymous returns the caller used when no session is present.
func Anonymous() Caller {
	return Caller{}
}

// Authenticated reports whether the caller has a session.
func (c Caller) Authenticated() bool {
	return c.ID != uuid.Nil && c.Role.Valid()
}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}

// CallerFromContext returns the caller stored in ctx, or the anonymous caller.
func CallerFromContext(ctx context.Context) Caller {
	c, ok := ctx.Value(callerContextKey).(Caller)
	if !ok {
		return Anonymous()
	}
	return c
}
