package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ultrahd-dev/course-catalog-app/internal/jwt"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

// ErrInvalidSession is returned when a token is present but does not map to
// an active account.
var ErrInvalidSession = errors.New("invalid session")

// Resolver maps a session token to a caller. An empty token resolves to the
// anonymous caller without error.
type Resolver interface {
	ResolveCaller(ctx context.Context, token string) (Caller, error)
}

// UserLookup is the part of the user store the resolver needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// TokenResolver resolves signed session tokens and re-checks the account on
// every call, so deactivated users lose access without waiting for expiry.
type TokenResolver struct {
	jwtManager *jwt.Manager
	users      UserLookup
}

// NewTokenResolver creates a resolver backed by the token manager and user store.
func NewTokenResolver(jwtManager *jwt.Manager, users UserLookup) *TokenResolver {
	return &TokenResolver{jwtManager: jwtManager, users: users}
}

// ResolveCaller implements Resolver.
func (r *TokenResolver) ResolveCaller(ctx context.Context, token string) (Caller, error) {
	if token == "" {
		return Anonymous(), nil
	}

	claims, err := r.jwtManager.ParseToken(token)
	if err != nil {
		return Anonymous(), fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	user, err := r.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return Anonymous(), fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !user.IsActive {
		return Anonymous(), fmt.Errorf("%w: user %s is deactivated", ErrInvalidSession, user.ID)
	}

	// The stored role wins over the token claim; roles never change within a
	// session, so a mismatch means the token is stale.
	if string(user.Role) != claims.Role {
		return Anonymous(), fmt.Errorf("%w: role mismatch for user %s", ErrInvalidSession, user.ID)
	}

	return Caller{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
