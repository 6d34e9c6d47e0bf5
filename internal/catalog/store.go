// Package catalog owns the course catalog and the enrollment relation.
//
// A Store is a synchronous in-memory state machine. Every mutation runs under
// one write lock, so readers never see a course missing from the id index or
// an enrollment that points at a deleted course.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

// Store holds the catalog and enrollments.
type Store struct {
	mu sync.RWMutex

	courses map[uuid.UUID]*Course
	order   []uuid.UUID            // insertion order, oldest first
	retired map[uuid.UUID]struct{} // ids of deleted courses, never handed out again

	enrollments map[uuid.UUID]map[uuid.UUID]*Enrollment // student -> course
	byCourse    map[uuid.UUID]map[uuid.UUID]struct{}    // course -> students
	seq         uint64

	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt and EnrolledAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the course id source.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		courses:     make(map[uuid.UUID]*Course),
		retired:     make(map[uuid.UUID]struct{}),
		enrollments: make(map[uuid.UUID]map[uuid.UUID]*Enrollment),
		byCourse:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
		now:         time.Now,
		newID:       uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCourses returns the catalog, most recently added first. Open to
// every caller.
func (s *Store) ListCourses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Course, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.courses[s.order[i]])
	}
	return out
}

// SearchCourses returns the courses whose title or description contains
// query, ignoring case, most recently added first. An empty query matches
// everything.
func (s *Store) SearchCourses(query string) []Course {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.ListCourses()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Course
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.courses[s.order[i]]
		if strings.Contains(strings.ToLower(c.Title), query) ||
			strings.Contains(strings.ToLower(c.Description), query) {
			out = append(out, *c)
		}
	}
	return out
}

// GetCourse returns a single course.
func (s *Store) GetCourse(id uuid.UUID) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, apperr.NotFound(fmt.Sprintf("course %s not found", id))
	}
	return *c, nil
}

// AddCourse validates the input and inserts a new course at the front of the
// catalog. Only admins may add courses. Nothing is stored on failure.
func (s *Store) AddCourse(caller auth.Caller, input NewCourseInput) (Course, error) {
	if err := auth.Require(caller, users.RoleAdmin); err != nil {
		return Course{}, err
	}

	clean, err := input.normalize()
	if err != nil {
		return Course{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.insertLocked(clean)
	logging.Infof("course %s (%q) added by %s", c.ID, c.Title, caller.Email)
	return *c, nil
}

// insertLocked stores a validated course. Callers hold s.mu.
func (s *Store) insertLocked(in NewCourseInput) *Course {
	c := &Course{
		ID:          s.freshIDLocked(),
		Title:       in.Title,
		Duration:    in.Duration,
		Fee:         in.Fee,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	s.courses[c.ID] = c
	s.order = append(s.order, c.ID)
	return c
}

func (s *Store) freshIDLocked() uuid.UUID {
	for {
		id := s.newID()
		if id == uuid.Nil {
			continue
		}
		if _, live := s.courses[id]; live {
			continue
		}
		if _, dead := s.retired[id]; dead {
			continue
		}
		return id
	}
}

// Seed loads the initial catalog at startup. All entries are validated before
// any is stored; listing order follows the order of inputs.
func (s *Store) Seed(inputs []NewCourseInput) error {
	clean := make([]NewCourseInput, len(inputs))
	for i, in := range inputs {
		c, err := in.normalize()
		if err != nil {
			return fmt.Errorf("seed course %d: %w", i, err)
		}
		clean[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Inserting back to front leaves inputs[0] as the newest entry.
	for i := len(clean) - 1; i >= 0; i-- {
		s.insertLocked(clean[i])
	}
	logging.Infof("catalog seeded with %d courses", len(clean))
	return nil
}

// DeleteCourse removes a course and every enrollment that references it in
// one step. Deleting an absent course succeeds. Only admins may delete.
func (s *Store) DeleteCourse(caller auth.Caller, id uuid.UUID) error {
	if err := auth.Require(caller, users.RoleAdmin); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return nil
	}

	dropped := 0
	for studentID := range s.byCourse[id] {
		delete(s.enrollments[studentID], id)
		if len(s.enrollments[studentID]) == 0 {
			delete(s.enrollments, studentID)
		}
		dropped++
	}
	delete(s.byCourse, id)

	delete(s.courses, id)
	s.retired[id] = struct{}{}
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	logging.Infof("course %s deleted by %s, %d enrollments removed", id, caller.Email, dropped)
	return nil
}

// Enroll adds the calling student to a course. Enrolling twice is a no-op.
func (s *Store) Enroll(caller auth.Caller, courseID uuid.UUID) error {
	if err := auth.Require(caller, users.RoleStudent); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[courseID]; !ok {
		return apperr.NotFound(fmt.Sprintf("course %s not found", courseID))
	}

	mine := s.enrollments[caller.ID]
	if _, already := mine[courseID]; already {
		return nil
	}
	if mine == nil {
		mine = make(map[uuid.UUID]*Enrollment)
		s.enrollments[caller.ID] = mine
	}

	s.seq++
	mine[courseID] = &Enrollment{
		StudentID:  caller.ID,
		CourseID:   courseID,
		EnrolledAt: s.now(),
		seq:        s.seq,
	}
	if s.byCourse[courseID] == nil {
		s.byCourse[courseID] = make(map[uuid.UUID]struct{})
	}
	s.byCourse[courseID][caller.ID] = struct{}{}

	logging.Debugf("student %s enrolled in course %s", caller.ID, courseID)
	return nil
}

// Unenroll removes the calling student from a course. Removing an absent
// enrollment succeeds.
func (s *Store) Unenroll(caller auth.Caller, courseID uuid.UUID) error {
	if err := auth.Require(caller, users.RoleStudent); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mine := s.enrollments[caller.ID]
	if _, ok := mine[courseID]; !ok {
		return nil
	}

	delete(mine, courseID)
	if len(mine) == 0 {
		delete(s.enrollments, caller.ID)
	}
	delete(s.byCourse[courseID], caller.ID)
	if len(s.byCourse[courseID]) == 0 {
		delete(s.byCourse, courseID)
	}

	logging.Debugf("student %s unenrolled from course %s", caller.ID, courseID)
	return nil
}

// ListEnrolled returns the courses the calling student is enrolled in,
// oldest enrollment first.
func (s *Store) ListEnrolled(caller auth.Caller) ([]Course, error) {
	if err := auth.Require(caller, users.RoleStudent); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := s.enrollments[caller.ID]
	list := make([]*Enrollment, 0, len(mine))
	for _, e := range mine {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	out := make([]Course, 0, len(list))
	for _, e := range list {
		out = append(out, *s.courses[e.CourseID])
	}
	return out, nil
}

// Stats summarizes the catalog. Only admins may read it.
func (s *Store) Stats(caller auth.Caller) (Stats, error) {
	if err := auth.Require(caller, users.RoleAdmin); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalCourses:   len(s.courses),
		ActiveStudents: len(s.enrollments),
	}
	for courseID, students := range s.byCourse {
		st.TotalEnrollments += len(students)
		st.Revenue += s.courses[courseID].Fee * float64(len(students))
	}
	return st, nil
}
