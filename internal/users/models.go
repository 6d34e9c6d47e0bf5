package users

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User represents an account that can open a session
type User struct {
	ID        uuid.UUID
	Email     string
	Password  string // bcrypt hash
	Role      Role
	CreatedAt time.Time
	LastLogin *time.Time // nil until the first successful login
	IsActive  bool
}
