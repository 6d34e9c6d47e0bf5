package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	"github.com/Ultrahd-dev/course-catalog-app/internal/catalog"
	cataloghandlers "github.com/Ultrahd-dev/course-catalog-app/internal/catalog/handlers"
	"github.com/Ultrahd-dev/course-catalog-app/internal/jwt"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
	userhandlers "github.com/Ultrahd-dev/course-catalog-app/internal/users/handlers"
)

type testServer struct {
	*httptest.Server
	store *catalog.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctx := context.Background()

	repo := users.NewRepository()
	userService := users.NewService(repo)
	hash, err := users.HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := userService.ProvisionUser(ctx, "admin@example.com", hash, users.RoleAdmin); err != nil {
		t.Fatalf("provision admin: %v", err)
	}

	manager := jwt.NewManager("test-secret", time.Hour, "courses")
	store := catalog.NewStore()

	handler := NewHandler(Deps{
		Auth:       auth.NewMiddleware(auth.NewTokenResolver(manager, repo)),
		Users:      userhandlers.NewAuthHandler(userService, manager, time.Hour),
		Courses:    cataloghandlers.NewCourseHandler(store),
		CORSOrigin: "http://localhost:5173",
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return testServer{Server: srv, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Fields  []struct {
		Field string `json:"field"`
	} `json:"fields"`
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, env
}

func (s testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", email, status, env.Message)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil || session.Token == "" {
		t.Fatalf("login %s: no token in %s", email, env.Data)
	}
	return session.Token
}

func (s testServer) registerStudent(t *testing.T, email string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "password": "secret1"})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, status, env.Message)
	}
	return s.login(t, email, "secret1")
}

func decodeCourses(t *testing.T, raw json.RawMessage) []catalog.Course {
	t.Helper()
	var out []catalog.Course
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode courses: %v (%s)", err, raw)
	}
	return out
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin@example.com", "admin-pass")
	studentToken := s.registerStudent(t, "ana@example.com")

	status, env := s.do(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]interface{}{
		"title": "X", "duration": "1 month", "fee": 100, "description": "d",
	})
	if status != http.StatusCreated {
		t.Fatalf("add course: status %d (%s)", status, env.Message)
	}
	var created catalog.Course
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode course: %v", err)
	}

	status, env = s.do(t, http.MethodGet, "/api/v1/courses", "", nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if list := decodeCourses(t, env.Data); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected catalog: %+v", list)
	}

	if status, _ := s.do(t, http.MethodPut, "/api/v1/enrollments/"+created.ID.String(), studentToken, nil); status != http.StatusNoContent {
		t.Fatalf("enroll: status %d", status)
	}
	status, env = s.do(t, http.MethodGet, "/api/v1/enrollments", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list enrolled: status %d", status)
	}
	if list := decodeCourses(t, env.Data); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected enrollments: %+v", list)
	}

	status, env = s.do(t, http.MethodGet, "/api/v1/stats", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: status %d", status)
	}
	var stats catalog.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalEnrollments != 1 || stats.Revenue != 100 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if status, _ := s.do(t, http.MethodDelete, "/api/v1/courses/"+created.ID.String(), adminToken, nil); status != http.StatusNoContent {
		t.Fatalf("delete: status %d", status)
	}
	if status, _ := s.do(t, http.MethodDelete, "/api/v1/courses/"+created.ID.String(), adminToken, nil); status != http.StatusNoContent {
		t.Fatalf("second delete: status %d", status)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/enrollments", studentToken, nil)
	if list := decodeCourses(t, env.Data); len(list) != 0 {
		t.Fatalf("enrollments survived delete: %+v", list)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/courses/"+created.ID.String(), "", nil); status != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", status)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin@example.com", "admin-pass")
	studentToken := s.registerStudent(t, "ana@example.com")
	validCourse := map[string]interface{}{"title": "X", "duration": "1 month", "fee": 100, "description": "d"}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"anonymous add", http.MethodPost, "/api/v1/courses", "", validCourse, http.StatusUnauthorized},
		{"student add", http.MethodPost, "/api/v1/courses", studentToken, validCourse, http.StatusForbidden},
		{"admin enroll", http.MethodPut, "/api/v1/enrollments/" + uuid.NewString(), adminToken, nil, http.StatusForbidden},
		{"enroll unknown course", http.MethodPut, "/api/v1/enrollments/" + uuid.NewString(), studentToken, nil, http.StatusNotFound},
		{"enroll malformed id", http.MethodPut, "/api/v1/enrollments/not-a-uuid", studentToken, nil, http.StatusNotFound},
		{"unenroll absent", http.MethodDelete, "/api/v1/enrollments/" + uuid.NewString(), studentToken, nil, http.StatusNoContent},
		{"anonymous delete", http.MethodDelete, "/api/v1/courses/" + uuid.NewString(), "", nil, http.StatusUnauthorized},
		{"anonymous enrollments", http.MethodGet, "/api/v1/enrollments", "", nil, http.StatusUnauthorized},
		{"student stats", http.MethodGet, "/api/v1/stats", studentToken, nil, http.StatusForbidden},
		{"bad token", http.MethodGet, "/api/v1/courses", "garbage", nil, http.StatusUnauthorized},
		{"malformed body", http.MethodPost, "/api/v1/courses", adminToken, "not an object", http.StatusBadRequest},
		{"anonymous malformed body", http.MethodPost, "/api/v1/courses", "", "not an object", http.StatusUnauthorized},
		{"anonymous mistyped fee", http.MethodPost, "/api/v1/courses", "", map[string]string{"title": "x", "fee": "100"}, http.StatusUnauthorized},
		{"student unknown field", http.MethodPost, "/api/v1/courses", studentToken, map[string]interface{}{"title": "x", "bogus": true}, http.StatusForbidden},
		{"anonymous profile", http.MethodGet, "/api/v1/auth/profile", "", nil, http.StatusUnauthorized},
		{"student profile", http.MethodGet, "/api/v1/auth/profile", studentToken, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if status != tt.want {
				t.Fatalf("status = %d, want %d (%s)", status, tt.want, env.Message)
			}
		})
	}

	if n := len(s.store.ListCourses()); n != 0 {
		t.Fatalf("rejected calls changed the catalog: %d courses", n)
	}
}

func TestInvalidInputReportsFields(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin@example.com", "admin-pass")

	status, env := s.do(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]interface{}{
		"title": "", "duration": "1 month", "fee": -5, "description": "d",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	var fields []string
	for _, f := range env.Fields {
		fields = append(fields, f.Field)
	}
	if strings.Join(fields, ",") != "title,fee" {
		t.Fatalf("fields = %v, want [title fee]", fields)
	}
	if n := len(s.store.ListCourses()); n != 0 {
		t.Fatalf("catalog length = %d, want 0", n)
	}
}

func TestInvalidInputReportsTypeErrorsWithOtherFields(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin@example.com", "admin-pass")

	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"empty title and text fee", map[string]interface{}{"title": "", "duration": "1m", "description": "d", "fee": "abc"}, "title,fee"},
		{"numeric title", map[string]interface{}{"title": 7, "duration": "1m", "description": "d", "fee": 10}, "title"},
		{"unknown key", map[string]interface{}{"title": "x", "duration": "", "description": "d", "fee": 10, "level": "easy"}, "duration,level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodPost, "/api/v1/courses", adminToken, tt.body)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", status, env.Message)
			}
			var fields []string
			for _, f := range env.Fields {
				fields = append(fields, f.Field)
			}
			if got := strings.Join(fields, ","); got != tt.want {
				t.Fatalf("fields = %s, want %s", got, tt.want)
			}
		})
	}

	if n := len(s.store.ListCourses()); n != 0 {
		t.Fatalf("catalog length = %d, want 0", n)
	}
}

func TestLogoutEndsCookieSession(t *testing.T) {
	s := newTestServer(t)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	post := func(path string, body string) *http.Response {
		t.Helper()
		resp, err := client.Post(s.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		return resp
	}
	profileStatus := func() int {
		t.Helper()
		resp, err := client.Get(s.URL + "/api/v1/auth/profile")
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if resp := post("/api/v1/auth/login", `{"email":"admin@example.com","password":"admin-pass"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	if status := profileStatus(); status != http.StatusOK {
		t.Fatalf("profile with cookie: status %d", status)
	}

	if resp := post("/api/v1/auth/logout", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	if status := profileStatus(); status != http.StatusUnauthorized {
		t.Fatalf("profile after logout: status %d, want 401", status)
	}

	// A stale cookie would fail Authenticate; logout still clears it.
	u, _ := url.Parse(s.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: auth.TokenCookieName, Value: "stale", Path: "/"}})
	if resp := post("/api/v1/auth/logout", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout with stale cookie: status %d", resp.StatusCode)
	}
	if cookies := jar.Cookies(u); len(cookies) != 0 {
		t.Fatalf("cookies after logout: %v", cookies)
	}
}

func TestSearchOverHTTP(t *testing.T) {
	s := newTestServer(t)
	if err := s.store.Seed([]catalog.NewCourseInput{
		{Title: "Data Science", Duration: "4 months", Fee: 12000, Description: "Python and ML"},
		{Title: "Cloud Computing", Duration: "3 months", Fee: 10000, Description: "AWS"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/courses?q=python", "", nil)
	list := decodeCourses(t, env.Data)
	if len(list) != 1 || list[0].Title != "Data Science" {
		t.Fatalf("search result = %+v", list)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/courses?q=cobol", "", nil)
	if list := decodeCourses(t, env.Data); len(list) != 0 {
		t.Fatalf("expected empty result, got %+v", list)
	}
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	if status, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"}); status != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "", "password": ""}); status != http.StatusBadRequest {
		t.Fatalf("empty credentials: status %d", status)
	}

	s.registerStudent(t, "dup@example.com")
	if status, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "dup@example.com", "password": "secret1"}); status != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", status)
	}
	if status, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "bad", "password": "x"}); status != http.StatusBadRequest || len(env.Fields) != 2 {
		t.Fatalf("invalid register: status %d, fields %v", status, env.Fields)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.Client().Get(s.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
