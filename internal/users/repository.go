// Package users stores accounts and checks their credentials.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an account with the same email exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository keeps accounts in memory for the lifetime of the process.
type Repository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
}

// NewRepository creates an empty user repository
func NewRepository() *Repository {
	return &Repository{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new user. CreatedAt is stamped if unset.
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return fmt.Errorf("failed to create user %s: %w", user.Email, ErrEmailTaken)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[key] = user.ID
	return nil
}

// GetUserByEmail returns a copy of the user with the given email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrUserNotFound)
	}
	user := *r.byID[id]
	return &user, nil
}

// GetUserByID returns a copy of the user with the given ID
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	user := *stored
	return &user, nil
}

// UpdateLastLogin records a successful login time.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	stored.LastLogin = &at
	return nil
}

// SetActive enables or disables an account. Sessions of a disabled account
// stop resolving on their next request.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	stored.IsActive = active
	return nil
}
