// Package routes wires the HTTP API together.
package routes

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	cataloghandlers "github.com/Ultrahd-dev/course-catalog-app/internal/catalog/handlers"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
	userhandlers "github.com/Ultrahd-dev/course-catalog-app/internal/users/handlers"
)

// Deps are the handlers and middleware the router mounts.
type Deps struct {
	Auth       *auth.Middleware
	Users      *userhandlers.AuthHandler
	Courses    *cataloghandlers.CourseHandler
	CORSOrigin string
}

// SetupRouter builds the mux with every API route.
func SetupRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Logout sits outside Authenticate so a stale cookie can still be cleared.
	router.HandleFunc("/api/v1/auth/logout", d.Users.Logout).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(d.Auth.Authenticate)

	api.HandleFunc("/auth/login", d.Users.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", d.Users.Register).Methods(http.MethodPost)
	api.Handle("/auth/profile", d.Auth.RequireAuthenticated(http.HandlerFunc(d.Users.Profile))).Methods(http.MethodGet)

	api.HandleFunc("/courses", d.Courses.ListCourses).Methods(http.MethodGet)
	api.HandleFunc("/courses", d.Courses.AddCourse).Methods(http.MethodPost)
	api.HandleFunc("/courses/{id}", d.Courses.GetCourse).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id}", d.Courses.DeleteCourse).Methods(http.MethodDelete)

	api.HandleFunc("/enrollments", d.Courses.ListEnrolled).Methods(http.MethodGet)
	api.HandleFunc("/enrollments/{courseID}", d.Courses.Enroll).Methods(http.MethodPut)
	api.HandleFunc("/enrollments/{courseID}", d.Courses.Unenroll).Methods(http.MethodDelete)

	api.HandleFunc("/stats", d.Courses.Stats).Methods(http.MethodGet)

	return router
}

// NewHandler wraps the router with CORS, access logging and tracing.
func NewHandler(d Deps) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{d.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(SetupRouter(d))
	handler = AccessLog(handler)
	return otelhttp.NewHandler(handler, "courses-api")
}

// AccessLog logs method, path, status and duration of each request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logging.Infof("%s %s %d %s", r.Method, r.URL.Path, m.Code, m.Duration.Round(time.Microsecond))
	})
}
