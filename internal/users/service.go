package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserDeactivated is returned when the account exists but is disabled.
	ErrUserDeactivated = errors.New("user account is deactivated")
)

// Service provides user business logic
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a new user service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RegisterUserInput contains data needed to register a new user
type RegisterUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (in RegisterUserInput) validate() error {
	var errs error
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		errs = multierr.Append(errs, apperr.Field("email", "must be a valid email address"))
	}
	if len(in.Password) < minPasswordLength {
		errs = multierr.Append(errs, apperr.Field("password", fmt.Sprintf("must be at least %d characters", minPasswordLength)))
	}
	if !in.Role.Valid() {
		errs = multierr.Append(errs, apperr.Field("role", "must be admin or student"))
	}
	return apperr.InvalidInput(errs)
}

// RegisterUser registers a new user with a plaintext password
func (s *Service) RegisterUser(ctx context.Context, input RegisterUserInput) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.createUser(ctx, input.Email, string(hashedPassword), input.Role)
}

// RegisterStudent registers a new student account
func (s *Service) RegisterStudent(ctx context.Context, email, password string) (*User, error) {
	return s.RegisterUser(ctx, RegisterUserInput{
		Email:    email,
		Password: password,
		Role:     RoleStudent,
	})
}

// ProvisionUser creates an account from an already hashed password, as found
// in the accounts section of the configuration.
func (s *Service) ProvisionUser(ctx context.Context, email, passwordHash string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("provision %s: unknown role %q", email, role)
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("provision %s: password hash is not bcrypt: %w", email, err)
	}
	return s.createUser(ctx, email, passwordHash, role)
}

func (s *Service) createUser(ctx context.Context, email, hash string, role Role) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(email),
		Password:  hash,
		Role:      role,
		CreatedAt: s.now(),
		IsActive:  true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// AuthenticateUser authenticates a user by email and password
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// HashPassword returns a bcrypt hash suitable for the accounts configuration.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
