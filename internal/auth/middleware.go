package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
)

// TokenCookieName is the cookie consulted when no Authorization header is sent.
const TokenCookieName = "token"

// Middleware resolves the caller for each HTTP request
type Middleware struct {
	resolver Resolver
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(resolver Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// tokenFromRequest extracts the session token. It returns ok=false when the
// Authorization header is present but malformed.
func tokenFromRequest(r *http.Request) (token string, ok bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value, true
	}
	return "", true
}

// Authenticate resolves the caller and stores it in the request context.
// Requests without a token continue as anonymous; requests with a bad token
// are rejected before the handler runs.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokenFromRequest(r)
		if !ok {
			http.Error(w, "Authorization header must use the Bearer scheme", http.StatusUnauthorized)
			return
		}

		caller, err := m.resolver.ResolveCaller(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidSession) {
				logging.Debugf("rejected session for %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}
			logging.Errorf("resolve caller: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireAuthenticated rejects anonymous callers with 401. Role checks stay
// in the catalog store; this only guards routes that make no sense without
// a session, such as the profile.
func (m *Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).Authenticated() {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
