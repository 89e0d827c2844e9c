// Package testutil provides an in-memory task backend implementing the REST
// contract, for tests and local demos.
package testutil

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/taskdeck/internal/wire"
)

// Failure is a canned error response
type Failure struct {
	Status  int
	Message string
}

type account struct {
	user     wire.User
	password string
}

// FakeAPI is an in-memory implementation of the task backend
type FakeAPI struct {
	mu       sync.Mutex
	mux      *http.ServeMux
	tasks    []wire.Task
	accounts map[string]account // by email
	tokens   map[string]string  // token -> email
	failures map[string][]Failure
	gates    map[string]chan struct{}
	calls    map[string]int
	now      func() time.Time

	// AuthHeader is the header the fake reads the token from
	AuthHeader string
}

// NewFakeAPI creates an empty backend
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		mux:        http.NewServeMux(),
		accounts:   make(map[string]account),
		tokens:     make(map[string]string),
		failures:   make(map[string][]Failure),
		gates:      make(map[string]chan struct{}),
		calls:      make(map[string]int),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		AuthHeader: "x-auth-token",
	}
	f.routes()
	return f
}

// ServeHTTP implements http.Handler
func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

// Start serves the fake on a local test server. Close the returned server when done.
func (f *FakeAPI) Start() *httptest.Server {
	return httptest.NewServer(f)
}

func (f *FakeAPI) routes() {
	f.mux.HandleFunc("POST /api/auth", f.handle("POST /api/auth", false, f.handleSignIn))
	f.mux.HandleFunc("POST /api/users", f.handle("POST /api/users", false, f.handleSignUp))
	f.mux.HandleFunc("GET /api/users/me", f.handle("GET /api/users/me", true, f.handleMe))

	f.mux.HandleFunc("GET /api/tasks", f.handle("GET /api/tasks", true, f.handleList))
	f.mux.HandleFunc("GET /api/tasks/created-by-me", f.handle("GET /api/tasks/created-by-me", true, f.handleCreatedByMe))
	f.mux.HandleFunc("GET /api/tasks/categories", f.handle("GET /api/tasks/categories", true, f.handleCategories))
	f.mux.HandleFunc("POST /api/tasks", f.handle("POST /api/tasks", true, f.handleCreate))
	f.mux.HandleFunc("GET /api/tasks/{id}", f.handle("GET /api/tasks/{id}", true, f.handleGet))
	f.mux.HandleFunc("PUT /api/tasks/{id}", f.handle("PUT /api/tasks/{id}", true, f.handleUpdate))
	f.mux.HandleFunc("DELETE /api/tasks/{id}", f.handle("DELETE /api/tasks/{id}", true, f.handleDelete))
	f.mux.HandleFunc("POST /api/tasks/{id}/comments", f.handle("POST /api/tasks/{id}/comments", true, f.handleAddComment))
	f.mux.HandleFunc("DELETE /api/tasks/{id}/comments/{commentId}", f.handle("DELETE /api/tasks/{id}/comments/{commentId}", true, f.handleDeleteComment))
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, email string)

// handle wraps a route with call counting, gating, failure injection and auth
func (f *FakeAPI) handle(route string, authed bool, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[route]++
		gate := f.gates[route]
		f.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		f.mu.Lock()
		if queue := f.failures[route]; len(queue) > 0 {
			fail := queue[0]
			f.failures[route] = queue[1:]
			f.mu.Unlock()
			writeError(w, fail.Status, fail.Message)
			return
		}
		f.mu.Unlock()

		var email string
		if authed {
			f.mu.Lock()
			email = f.tokens[r.Header.Get(f.AuthHeader)]
			f.mu.Unlock()
			if email == "" {
				writeError(w, http.StatusUnauthorized, "Access denied. No valid token provided.")
				return
			}
		}
		h(w, r, email)
	}
}

// AddUser registers an account and returns a token for it
func (f *FakeAPI) AddUser(name, email, password string) string {
	email = strings.ToLower(email)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = account{
		user:     wire.User{ID: uuid.NewString(), Name: name, Email: email},
		password: password,
	}
	token := uuid.NewString()
	f.tokens[token] = email
	return token
}

// Seed replaces the stored tasks
func (f *FakeAPI) Seed(tasks ...wire.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append([]wire.Task(nil), tasks...)
}

// Tasks returns a copy of the stored tasks
func (f *FakeAPI) Tasks() []wire.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wire.Task(nil), f.tasks...)
}

// FailNext makes the next call to route (e.g. "PUT /api/tasks/{id}") fail
func (f *FakeAPI) FailNext(route string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = append(f.failures[route], Failure{Status: status, Message: message})
}

// Hold blocks every call to route until the returned release func is called
func (f *FakeAPI) Hold(route string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[route] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, route)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests reached route
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// SetClock overrides the server clock used for timestamps
func (f *FakeAPI) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (f *FakeAPI) indexOf(id string) int {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) user(email string) wire.User {
	return f.accounts[strings.ToLower(email)].user
}
