// Package handlers exposes the catalog store over HTTP, one endpoint per
// store operation.
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	"github.com/Ultrahd-dev/course-catalog-app/internal/catalog"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
	"github.com/Ultrahd-dev/course-catalog-app/internal/response"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

// Store is the catalog surface the handlers need.
type Store interface {
	ListCourses() []catalog.Course
	SearchCourses(query string) []catalog.Course
	GetCourse(id uuid.UUID) (catalog.Course, error)
	AddCourse(caller auth.Caller, input catalog.NewCourseInput) (catalog.Course, error)
	DeleteCourse(caller auth.Caller, id uuid.UUID) error
	Enroll(caller auth.Caller, courseID uuid.UUID) error
	Unenroll(caller auth.Caller, courseID uuid.UUID) error
	ListEnrolled(caller auth.Caller) ([]catalog.Course, error)
	Stats(caller auth.Caller) (catalog.Stats, error)
}

// CourseHandler serves the course, enrollment and stats endpoints
type CourseHandler struct {
	store Store
}

// NewCourseHandler creates a handler over the store
func NewCourseHandler(store Store) *CourseHandler {
	return &CourseHandler{store: store}
}

// pathID reads a uuid route variable. A malformed id can never name an
// existing course, so it maps to uuid.Nil and the store answers as it would
// for any absent id.
func pathID(r *http.Request, name string) uuid.UUID {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ListCourses returns the catalog, optionally filtered by ?q=
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	var courses []catalog.Course
	if q := r.URL.Query().Get("q"); q != "" {
		courses = h.store.SearchCourses(q)
	} else {
		courses = h.store.ListCourses()
	}
	if courses == nil {
		courses = []catalog.Course{}
	}
	response.OK(w, "Courses retrieved", courses)
}

// GetCourse returns one course
// GET /api/v1/courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	course, err := h.store.GetCourse(pathID(r, "id"))
	if err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.OK(w, "Course retrieved", course)
}

// AddCourse creates a course
// POST /api/v1/courses
func (h *CourseHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	// The role check runs before the body is read.
	if err := auth.Require(caller, users.RoleAdmin); err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}

	input, err := decodeCourseInput(r)
	if err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}

	course, err := h.store.AddCourse(caller, input)
	if err != nil {
		logging.Debugf("add course rejected for %s: %v", caller.Email, err)
		response.Error(w, err, caller.Authenticated())
		return
	}

	response.JSON(w, http.StatusCreated, response.Envelope{
		Success: true,
		Message: "Course created",
		Data:    course,
	})
}

// DeleteCourse removes a course and its enrollments
// DELETE /api/v1/courses/{id}
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := h.store.DeleteCourse(caller, pathID(r, "id")); err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.NoContent(w)
}

// ListEnrolled returns the caller's courses in enrollment order
// GET /api/v1/enrollments
func (h *CourseHandler) ListEnrolled(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	courses, err := h.store.ListEnrolled(caller)
	if err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.OK(w, "Enrollments retrieved", courses)
}

// Enroll enrolls the caller in a course
// PUT /api/v1/enrollments/{courseID}
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := h.store.Enroll(caller, pathID(r, "courseID")); err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.NoContent(w)
}

// Unenroll removes the caller from a course
// DELETE /api/v1/enrollments/{courseID}
func (h *CourseHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if err := h.store.Unenroll(caller, pathID(r, "courseID")); err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.NoContent(w)
}

// Stats returns the admin dashboard numbers
// GET /api/v1/stats
func (h *CourseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	stats, err := h.store.Stats(caller)
	if err != nil {
		response.Error(w, err, caller.Authenticated())
		return
	}
	response.OK(w, "Stats retrieved", stats)
}
