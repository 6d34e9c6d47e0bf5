// Package handlers serves the login, registration and profile endpoints
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	"github.com/Ultrahd-dev/course-catalog-app/internal/jwt"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
	"github.com/Ultrahd-dev/course-catalog-app/internal/response"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	userService   *users.Service
	jwtManager    *jwt.Manager
	tokenLifetime time.Duration
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(userService *users.Service, jwtManager *jwt.Manager, tokenLifetime time.Duration) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		jwtManager:    jwtManager,
		tokenLifetime: tokenLifetime,
	}
}

// Credentials is the body of login and register requests
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserView is the public shape of an account
type UserView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      users.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func viewOf(u *users.User) UserView {
	return UserView{ID: u.ID.String(), Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

// SessionView is returned on login
type SessionView struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// Login exchanges credentials for a session token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Fail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userService.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		logging.Infof("login failed for %s: %v", req.Email, err)
		response.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		logging.Errorf("issue token for %s: %v", user.Email, err)
		response.Fail(w, http.StatusInternalServerError, "Could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, "Logged in", SessionView{Token: token, User: viewOf(user)})
}

// Register creates a student account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	user, err := h.userService.RegisterStudent(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			response.Fail(w, http.StatusConflict, "Email already registered")
			return
		}
		response.Error(w, err, false)
		return
	}

	logging.Infof("student %s registered", user.Email)
	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Student registered",
		Data:    viewOf(user),
	})
}

// Profile returns the current caller
// GET /api/v1/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	user, err := h.userService.GetUserByID(r.Context(), caller.ID)
	if err != nil {
		logging.Warnf("profile lookup for %s: %v", caller.ID, err)
		response.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	response.OK(w, "Profile retrieved", viewOf(user))
}

// Logout ends a cookie session by expiring the token cookie. Bearer tokens
// are held by the client and simply stop being sent.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, "Logged out", nil)
}
