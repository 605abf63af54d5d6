// Package testutil provides an in-memory stand-in for the remote task API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Makepad-fr/todos/internal/model"
)

// Request is one call the fake API received.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// FakeAPI serves the task endpoints under /api/ from memory.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	tasks    []model.Task
	nextID   int
	uuids    bool
	fail     map[string]int
	requests []Request
}

// FakeOption configures a FakeAPI.
type FakeOption func(*FakeAPI)

// WithTasks seeds the collection.
func WithTasks(tasks ...model.Task) FakeOption {
	return func(f *FakeAPI) { f.tasks = append(f.tasks, tasks...) }
}

// WithUUIDs makes the fake assign string ids instead of counters.
func WithUUIDs() FakeOption {
	return func(f *FakeAPI) { f.uuids = true }
}

// NewFakeAPI starts the fake and stops it when the test ends.
func NewFakeAPI(t testing.TB, opts ...FakeOption) *FakeAPI {
	t.Helper()
	f := &FakeAPI{nextID: 1, fail: map[string]int{}}
	for _, opt := range opts {
		opt(f)
	}
	for _, tk := range f.tasks {
		if n, err := strconv.Atoi(tk.ID.String()); err == nil && n >= f.nextID {
			f.nextID = n + 1
		}
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/todos/", f.list)
		r.Post("/todos/add", f.create)
		r.Put("/{id}/update", f.update)
		r.Delete("/{id}/delete", f.remove)
	})
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the value a client should be configured with.
func (f *FakeAPI) BaseURL() string { return f.Server.URL + "/api/" }

// FailNext makes the next n requests with the given method answer 500.
func (f *FakeAPI) FailNext(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = n
}

// Tasks returns the server-side collection.
func (f *FakeAPI) Tasks() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// record notes the request and reports whether it should fail.
func (f *FakeAPI) record(r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.requests = append(f.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	if f.fail[r.Method] > 0 {
		f.fail[r.Method]--
		return body, true
	}
	return body, false
}

func (f *FakeAPI) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, fail := f.record(r); fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected_error"})
		return
	}
	writeJSON(w, http.StatusOK, f.tasks)
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, fail := f.record(r)
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected_error"})
		return
	}
	title, _ := body["title"].(string)
	if title == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title is required"})
		return
	}
	completed, _ := body["completed"].(bool)

	var id model.ID
	if f.uuids {
		id = model.ID(uuid.NewString())
	} else {
		id = model.ID(strconv.Itoa(f.nextID))
		f.nextID++
	}
	t := model.Task{ID: id, Title: title, Completed: completed}
	f.tasks = append(f.tasks, t)
	writeJSON(w, http.StatusCreated, t)
}

func (f *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, fail := f.record(r)
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected_error"})
		return
	}
	id := model.ID(chi.URLParam(r, "id"))
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if c, ok := body["completed"].(bool); ok {
			f.tasks[i].Completed = c
		}
		writeJSON(w, http.StatusOK, f.tasks[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
}

func (f *FakeAPI) remove(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, fail := f.record(r); fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected_error"})
		return
	}
	id := model.ID(chi.URLParam(r, "id"))
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
