// Package todotest runs an in-memory todo service for tests.
package todotest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/idilsaglam/tada/internal/model"
)

// Request is what the fake server saw for one call.
type Request struct {
	Method        string
	Path          string
	Body          string
	Authorization string
	RequestID     string
}

// Server mimics the REST contract of the todo service:
// GET/POST /todos, PUT/DELETE /todos/{id}.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	todos    []model.Todo
	nextID   int64
	failures map[string]int    // method -> forced status
	raw      map[string]string // method -> forced body
	stalled  map[string]bool
	requests []Request
}

// New starts a server seeded with todos and closes it when the test ends.
func New(t testing.TB, seed ...model.Todo) *Server {
	t.Helper()
	s := &Server{
		failures: map[string]int{},
		raw:      map[string]string{},
		stalled:  map[string]bool{},
		todos:    []model.Todo{},
		nextID:   1,
	}
	for _, td := range seed {
		s.todos = append(s.todos, td)
		if td.ID >= s.nextID {
			s.nextID = td.ID + 1
		}
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/todos", s.list)
	r.Post("/todos", s.create)
	r.Put("/todos/{id}", s.update)
	r.Delete("/todos/{id}", s.remove)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Fail makes every request with method answer with status until cleared with 0.
func (s *Server) Fail(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, method)
		return
	}
	s.failures[method] = status
}

// Respond makes every successful request with method answer with body verbatim.
func (s *Server) Respond(method, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[method] = body
}

// Stall makes every request with method hang until the client gives up.
func (s *Server) Stall(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalled[method] = true
}

// Todos returns a copy of the stored collection.
func (s *Server) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo(nil), s.todos...)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests returns how many requests used method.
func (s *Server) CountRequests(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Body:          string(body),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		status, failing := s.failures[r.Method]
		stalled := s.stalled[r.Method]
		s.mu.Unlock()

		if stalled {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			http.Error(w, "stalled", http.StatusGatewayTimeout)
			return
		}

		if failing {
			http.Error(w, "forced failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body, ok := s.raw[http.MethodGet]; ok {
		writeRaw(w, http.StatusOK, body)
		return
	}
	writeJSON(w, http.StatusOK, s.todos)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in model.NewTodo
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	td := model.Todo{ID: s.nextID, Task: in.Task}
	s.nextID++
	s.todos = append(s.todos, td)
	if body, ok := s.raw[http.MethodPost]; ok {
		writeRaw(w, http.StatusCreated, body)
		return
	}
	writeJSON(w, http.StatusCreated, td)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in model.Todo
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = in.Completed
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.todos[:0]
	for _, td := range s.todos {
		if td.ID != id {
			out = append(out, td)
		}
	}
	s.todos = out
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid todo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
