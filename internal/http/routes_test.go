package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/internal/clock"
	"taskflow/internal/config"
	"taskflow/internal/http/handlers"
	"taskflow/internal/repository/memstore"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	r     *gin.Engine
	clock *clock.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c := clock.Fake(t0)
	store := memstore.New()
	audit := service.NewAuditService(store.Audit, c)
	tokens := service.NewTokenManager("test-secret", time.Hour, c)
	auth := service.NewAuthService(store.Users, tokens, audit, c, bcrypt.MinCost)
	tasks := service.NewTaskService(store.Tasks, audit, c)

	cfg := &config.Config{
		AppVersion:     "test",
		APIRateLimit:   10000,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  10000,
		AuthRateWindow: time.Minute,
	}

	r := gin.New()
	RegisterRoutes(r, handlers.NewHandler(auth, tasks, audit), handlers.NewHealthHandler(store, cfg.AppVersion), cfg)
	return &testServer{r: r, clock: c}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected %d got %d: %s", code, w.Code, w.Body.String())
	}
}

type taskBody struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"completed"`
	Status      string     `json:"status"`
}

// signUp registers and logs in a user and returns the bearer token.
func (s *testServer) signUp(t *testing.T, name, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "secret123"})
	expectCode(t, w, http.StatusCreated)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret123"})
	expectCode(t, w, http.StatusOK)
	res := decode[struct {
		Token string `json:"token"`
	}](t, w)
	if res.Token == "" {
		t.Fatalf("login returned no token: %s", w.Body.String())
	}
	return res.Token
}

func (s *testServer) createTask(t *testing.T, token string, body gin.H) taskBody {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/tasks", token, body)
	expectCode(t, w, http.StatusCreated)
	return decode[struct {
		Task taskBody `json:"task"`
	}](t, w).Task
}

func TestEndToEndTaskFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	tomorrow := t0.Add(24 * time.Hour).Format(time.RFC3339)
	created := s.createTask(t, token, gin.H{"title": "Buy milk", "dueDate": tomorrow})
	if created.Status != "upcoming" {
		t.Fatalf("expected upcoming status, got %q", created.Status)
	}

	w := s.do(t, http.MethodGet, "/api/tasks", token, nil)
	expectCode(t, w, http.StatusOK)
	list := decode[[]taskBody](t, w)
	if len(list) != 1 || list[0].ID != created.ID || list[0].Completed {
		t.Fatalf("expected one open task, got %+v", list)
	}

	w = s.do(t, http.MethodPut, "/api/tasks/"+created.ID, token, gin.H{"completed": true})
	expectCode(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/tasks/search?completed=true", token, nil)
	expectCode(t, w, http.StatusOK)
	found := decode[[]taskBody](t, w)
	if len(found) != 1 || found[0].ID != created.ID || !found[0].Completed || found[0].Status != "completed" {
		t.Fatalf("expected the completed task, got %+v", found)
	}

	w = s.do(t, http.MethodDelete, "/api/tasks/"+created.ID, token, nil)
	expectCode(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/tasks", token, nil)
	expectCode(t, w, http.StatusOK)
	if got := decode[[]taskBody](t, w); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "Alice", "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Again", "email": "Alice@Example.com", "password": "x"})
	expectCode(t, w, http.StatusBadRequest)
	if got := decode[gin.H](t, w)["error"]; got != "user already exists" {
		t.Fatalf("unexpected duplicate error %v", got)
	}

	wrongPass := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "nope"})
	unknown := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "bob@example.com", "password": "nope"})
	expectCode(t, wrongPass, http.StatusBadRequest)
	expectCode(t, unknown, http.StatusBadRequest)
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures differ: %s vs %s", wrongPass.Body.String(), unknown.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "", "email": "bad", "password": ""})
	expectCode(t, w, http.StatusBadRequest)
	fields := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w).Fields
	for _, k := range []string{"name", "email", "password"} {
		if fields[k] == "" {
			t.Fatalf("expected a %s field error, got %v", k, fields)
		}
	}

	w = s.do(t, http.MethodPost, "/api/auth/login", "", "not an object")
	expectCode(t, w, http.StatusBadRequest)
}

func TestBindingTagErrors(t *testing.T) {
	s := newTestServer(t)

	fieldsOf := func(w *httptest.ResponseRecorder) map[string]string {
		t.Helper()
		expectCode(t, w, http.StatusBadRequest)
		body := decode[struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}](t, w)
		if body.Error != "validation failed" {
			t.Fatalf("unexpected error %q", body.Error)
		}
		return body.Fields
	}

	long := string(bytes.Repeat([]byte("p"), 73))
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Carol", "email": "carol@example.com", "password": long})
	if got := fieldsOf(w)["password"]; got != "must be at most 72 bytes long" {
		t.Fatalf("password field = %q", got)
	}

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Carol", "email": "  Carol@Example.com ", "password": "secret123"})
	expectCode(t, w, http.StatusCreated)
	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "carol@example.com", "password": "secret123"})
	expectCode(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "carol@example.com"})
	if got := fieldsOf(w)["password"]; got != "must be provided" {
		t.Fatalf("login password field = %q", got)
	}

	token := s.signUp(t, "Dave", "dave@example.com")
	w = s.do(t, http.MethodPost, "/api/tasks", token, gin.H{"description": "no title"})
	if got := fieldsOf(w)["title"]; got != "must be provided" {
		t.Fatalf("title field = %q", got)
	}

	w = s.do(t, http.MethodPut, "/api/auth/me", token, gin.H{"email": "not-an-email"})
	if got := fieldsOf(w)["email"]; got != "must be a valid email address" {
		t.Fatalf("profile email field = %q", got)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/me"},
		{http.MethodGet, "/api/auth/activity"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodGet, "/api/tasks/search"},
		{http.MethodGet, "/api/tasks/due-reminders"},
		{http.MethodPut, "/api/tasks/x"},
		{http.MethodDelete, "/api/tasks/x"},
	} {
		w := s.do(t, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, w.Code)
		}
		w = s.do(t, tc.method, tc.path, "garbage", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: expected 401 got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestTokenExpires(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	s.clock.Advance(59 * time.Minute)
	expectCode(t, s.do(t, http.MethodGet, "/api/auth/me", token, nil), http.StatusOK)

	s.clock.Advance(2 * time.Minute)
	expectCode(t, s.do(t, http.MethodGet, "/api/auth/me", token, nil), http.StatusUnauthorized)
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")
	s.signUp(t, "Bob", "bob@example.com")

	w := s.do(t, http.MethodPut, "/api/auth/me", token, gin.H{"name": "Alicia"})
	expectCode(t, w, http.StatusOK)
	user := decode[struct {
		User struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"passwordHash"`
		} `json:"user"`
	}](t, w).User
	if user.Name != "Alicia" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected profile %+v", user)
	}
	if user.Password != "" {
		t.Fatalf("password hash leaked in response")
	}

	w = s.do(t, http.MethodPut, "/api/auth/me", token, gin.H{"email": "bob@example.com"})
	expectCode(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPut, "/api/auth/me", token, gin.H{"password": "newpass"})
	expectCode(t, w, http.StatusOK)
	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "newpass"})
	expectCode(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/auth/activity", token, nil)
	expectCode(t, w, http.StatusOK)
	activity := decode[struct {
		Activity []struct {
			Action string `json:"action"`
		} `json:"activity"`
	}](t, w).Activity
	if len(activity) == 0 {
		t.Fatalf("expected audit entries")
	}
}

func TestTasksAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "Alice", "alice@example.com")
	bob := s.signUp(t, "Bob", "bob@example.com")

	task := s.createTask(t, alice, gin.H{"title": "private"})

	expectCode(t, s.do(t, http.MethodPut, "/api/tasks/"+task.ID, bob, gin.H{"completed": true}), http.StatusNotFound)
	expectCode(t, s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, bob, nil), http.StatusNotFound)
	expectCode(t, s.do(t, http.MethodPut, "/api/tasks/not-a-uuid", alice, gin.H{"completed": true}), http.StatusNotFound)

	w := s.do(t, http.MethodGet, "/api/tasks/search?keyword=private", bob, nil)
	expectCode(t, w, http.StatusOK)
	if got := decode[[]taskBody](t, w); len(got) != 0 {
		t.Fatalf("bob sees alice's task: %+v", got)
	}

	w = s.do(t, http.MethodGet, "/api/tasks", alice, nil)
	if got := decode[[]taskBody](t, w); len(got) != 1 || got[0].Completed {
		t.Fatalf("alice's task changed: %+v", got)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/tasks", token, gin.H{"title": "   "})
	expectCode(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPost, "/api/tasks", token, gin.H{"title": "x", "dueDate": "next tuesday"})
	expectCode(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPost, "/api/tasks", token, gin.H{"title": "x", "dueDate": 12})
	expectCode(t, w, http.StatusBadRequest)

	task := s.createTask(t, token, gin.H{"title": "x", "dueDate": ""})
	if task.DueDate != nil || task.Status != "undated" {
		t.Fatalf("empty dueDate should mean none, got %+v", task)
	}

	task = s.createTask(t, token, gin.H{"title": "y", "dueDate": "2026-05-12"})
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only dueDate should be midnight UTC, got %+v", task.DueDate)
	}

	task = s.createTask(t, token, gin.H{"title": "z", "dueDate": "2026-05-12T10:30:00"})
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("offset-less dueDate should be read as UTC, got %+v", task.DueDate)
	}
}

func TestUpdateTaskDueDate(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")
	task := s.createTask(t, token, gin.H{"title": "x", "description": "keep", "dueDate": "2026-05-12"})

	// absent dueDate leaves it alone
	w := s.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{"title": "renamed"})
	expectCode(t, w, http.StatusOK)
	got := decode[struct {
		Task taskBody `json:"task"`
	}](t, w).Task
	if got.Title != "renamed" || got.Description != "keep" || got.DueDate == nil {
		t.Fatalf("partial update clobbered fields: %+v", got)
	}

	w = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{"dueDate": nil})
	expectCode(t, w, http.StatusOK)
	got = decode[struct {
		Task taskBody `json:"task"`
	}](t, w).Task
	if got.DueDate != nil {
		t.Fatalf("null dueDate should clear it, got %v", got.DueDate)
	}

	w = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{"title": ""})
	expectCode(t, w, http.StatusBadRequest)
}

func TestListViews(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	late := s.createTask(t, token, gin.H{"title": "late", "dueDate": t0.Add(-time.Hour).Format(time.RFC3339)})
	s.clock.Advance(time.Second)
	soon := s.createTask(t, token, gin.H{"title": "soon", "dueDate": t0.Add(2 * time.Hour).Format(time.RFC3339)})
	s.clock.Advance(time.Second)
	done := s.createTask(t, token, gin.H{"title": "done"})
	expectCode(t, s.do(t, http.MethodPut, "/api/tasks/"+done.ID, token, gin.H{"completed": true}), http.StatusOK)

	ids := func(view string) []string {
		w := s.do(t, http.MethodGet, "/api/tasks?view="+view, token, nil)
		expectCode(t, w, http.StatusOK)
		var out []string
		for _, task := range decode[[]taskBody](t, w) {
			out = append(out, task.ID)
		}
		return out
	}

	cases := map[string][]string{
		"overdue":   {late.ID},
		"upcoming":  {soon.ID},
		"completed": {done.ID},
		"pending":   {late.ID, soon.ID},
	}
	for view, want := range cases {
		got := ids(view)
		if len(got) != len(want) {
			t.Fatalf("view %s: expected %v got %v", view, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("view %s: expected %v got %v", view, want, got)
			}
		}
	}

	expectCode(t, s.do(t, http.MethodGet, "/api/tasks?view=someday", token, nil), http.StatusBadRequest)
}

func TestSearchQueryParams(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	s.createTask(t, token, gin.H{"title": "Report", "description": "quarterly FOO numbers", "dueDate": "2026-05-11T18:00:00Z"})
	s.createTask(t, token, gin.H{"title": "foo bar", "dueDate": "2026-05-20T08:00:00Z"})
	s.createTask(t, token, gin.H{"title": "food", "description": "no date"})
	s.createTask(t, token, gin.H{"title": "unrelated", "dueDate": "2026-05-11T09:00:00Z"})

	titles := func(query string) []string {
		w := s.do(t, http.MethodGet, "/api/tasks/search?"+query, token, nil)
		expectCode(t, w, http.StatusOK)
		var out []string
		for _, task := range decode[[]taskBody](t, w) {
			out = append(out, task.Title)
		}
		return out
	}
	equal := func(got, want []string) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	if got, want := titles("keyword=foo"), []string{"Report", "foo bar", "food"}; !equal(got, want) {
		t.Fatalf("keyword: expected %v got %v", want, got)
	}
	// date-only toDate covers the whole day
	if got, want := titles("fromDate=2026-05-11&toDate=2026-05-11"), []string{"unrelated", "Report"}; !equal(got, want) {
		t.Fatalf("single day: expected %v got %v", want, got)
	}
	if got, want := titles("fromDate=2026-05-12"), []string{"foo bar"}; !equal(got, want) {
		t.Fatalf("open range: expected %v got %v", want, got)
	}
	if got := titles("fromDate=2026-05-20&toDate=2026-05-01"); len(got) != 0 {
		t.Fatalf("inverted range should be empty, got %v", got)
	}

	expectCode(t, s.do(t, http.MethodGet, "/api/tasks/search?completed=maybe", token, nil), http.StatusBadRequest)
	expectCode(t, s.do(t, http.MethodGet, "/api/tasks/search?fromDate=yesterday", token, nil), http.StatusBadRequest)
}

func TestDueReminders(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Alice", "alice@example.com")

	day := 24 * time.Hour
	s.createTask(t, token, gin.H{"title": "yesterday", "dueDate": t0.Add(-day).Format(time.RFC3339)})
	s.createTask(t, token, gin.H{"title": "in two days", "dueDate": t0.Add(2 * day).Format(time.RFC3339)})
	s.createTask(t, token, gin.H{"title": "in ten days", "dueDate": t0.Add(10 * day).Format(time.RFC3339)})
	s.createTask(t, token, gin.H{"title": "undated"})

	w := s.do(t, http.MethodGet, "/api/tasks/due-reminders", token, nil)
	expectCode(t, w, http.StatusOK)
	res := decode[struct {
		Message string     `json:"message"`
		Tasks   []taskBody `json:"tasks"`
	}](t, w)
	if len(res.Tasks) != 2 || res.Tasks[0].Title != "yesterday" || res.Tasks[1].Title != "in two days" {
		t.Fatalf("unexpected reminders %+v", res.Tasks)
	}
	if res.Message == "" {
		t.Fatalf("expected a message")
	}
}

func TestHealthAndUI(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		expectCode(t, s.do(t, http.MethodGet, path, "", nil), http.StatusOK)
	}
	expectCode(t, s.do(t, http.MethodGet, "/metrics", "", nil), http.StatusOK)

	w := s.do(t, http.MethodGet, "/", "", nil)
	expectCode(t, w, http.StatusFound)
	if loc := w.Header().Get("Location"); loc != "/app/" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	expectCode(t, s.do(t, http.MethodGet, "/app/", "", nil), http.StatusOK)
	expectCode(t, s.do(t, http.MethodGet, "/app/app.js", "", nil), http.StatusOK)
	expectCode(t, s.do(t, http.MethodGet, "/api/nope", "", nil), http.StatusNotFound)
}
