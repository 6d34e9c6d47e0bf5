package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
)

// Course is an entry of the catalog. Courses are never edited in place.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Duration    string    `json:"duration"` // free-form, e.g. "3 months"
	Fee         float64   `json:"fee"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCourseInput contains the admin-supplied fields of a new course
type NewCourseInput struct {
	Title       string  `json:"title" yaml:"title"`
	Duration    string  `json:"duration" yaml:"duration"`
	Fee         float64 `json:"fee" yaml:"fee"`
	Description string  `json:"description" yaml:"description"`
}

// normalize trims the text fields and checks every field, reporting all
// violations in one InvalidInput error.
func (in NewCourseInput) normalize() (NewCourseInput, error) {
	out := NewCourseInput{
		Title:       strings.TrimSpace(in.Title),
		Duration:    strings.TrimSpace(in.Duration),
		Fee:         in.Fee,
		Description: strings.TrimSpace(in.Description),
	}

	var errs error
	if out.Title == "" {
		errs = multierr.Append(errs, apperr.Field("title", "is required"))
	}
	if out.Duration == "" {
		errs = multierr.Append(errs, apperr.Field("duration", "is required"))
	}
	if !(out.Fee > 0) || math.IsInf(out.Fee, 1) {
		errs = multierr.Append(errs, apperr.Field("fee", "must be a positive number"))
	}
	if out.Description == "" {
		errs = multierr.Append(errs, apperr.Field("description", "is required"))
	}

	if err := apperr.InvalidInput(errs); err != nil {
		return NewCourseInput{}, err
	}
	return out, nil
}

// Validate reports every invalid field of in without changing it.
func (in NewCourseInput) Validate() error {
	_, err := in.normalize()
	return err
}

// Enrollment links a student to a course. (StudentID, CourseID) is unique.
type Enrollment struct {
	StudentID  uuid.UUID `json:"student_id"`
	CourseID   uuid.UUID `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`

	seq uint64 // enrollment order, ties on EnrolledAt are common
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalCourses     int     `json:"total_courses"`
	ActiveStudents   int     `json:"active_students"`
	TotalEnrollments int     `json:"total_enrollments"`
	Revenue          float64 `json:"revenue"`
}
