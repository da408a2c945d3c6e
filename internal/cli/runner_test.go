package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todolist"
	"github.com/idilsaglam/tada/internal/todotest"
	"github.com/idilsaglam/tada/internal/ui"
)

type harness struct {
	r        *Runner
	srv      *todotest.Server
	out, err *bytes.Buffer
}

func newHarness(t *testing.T, seed ...model.Todo) *harness {
	t.Helper()
	t.Setenv(auth.EnvToken, "")
	srv := todotest.New(t, seed...)
	client, err := api.New(api.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	theme, _ := ui.ThemeByName("mono")
	h := &harness{srv: srv, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.r = &Runner{
		Config: &config.Config{Server: srv.URL},
		Ctrl:   todolist.New(client, nil),
		Auth:   auth.Store{Dir: t.TempDir()},
		Theme:  theme,
		In:     strings.NewReader(""),
		Out:    h.out,
		Err:    h.err,
	}
	return h
}

func (h *harness) run(args ...string) int {
	return h.r.Run(context.Background(), args)
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		{"bogus"},
		{"add"},
		{"add", "   "},
		{"done"},
		{"done", "abc"},
		{"rm", "1", "2"},
		{"auth"},
		{"auth", "whoami"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness(t)
			if code := h.run(args...); code != 2 {
				t.Errorf("exit code: got %d, want 2", code)
			}
			if n := len(h.srv.Requests()); n != 0 {
				t.Errorf("requests: got %d, want 0", n)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	if code := h.run("help"); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.Contains(h.out.String(), "Subcommands:") {
		t.Errorf("help output: %q", h.out.String())
	}
}

func TestList(t *testing.T) {
	h := newHarness(t,
		model.Todo{ID: 1, Task: "write tests", Completed: true},
		model.Todo{ID: 2, Task: "ship"},
	)
	if code := h.run("list"); code != 0 {
		t.Fatalf("exit code: got %d, stderr %q", code, h.err.String())
	}
	out := h.out.String()
	if !strings.Contains(out, "[x] write tests") || !strings.Contains(out, "[ ] ship") {
		t.Errorf("list output:\n%s", out)
	}
	if strings.Index(out, "write tests") > strings.Index(out, "ship") {
		t.Errorf("server order not kept:\n%s", out)
	}
}

func TestListGrouped(t *testing.T) {
	h := newHarness(t,
		model.Todo{ID: 1, Task: "done one", Completed: true},
		model.Todo{ID: 2, Task: "open one"},
	)
	h.r.Config.Group = true
	if code := h.run("list"); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	out := h.out.String()
	if strings.Index(out, "Pending") > strings.Index(out, "open one") ||
		strings.Index(out, "Done") > strings.Index(out, "done one") ||
		strings.Index(out, "open one") > strings.Index(out, "done one") {
		t.Errorf("grouped output:\n%s", out)
	}
}

func TestListEmptyAndFailure(t *testing.T) {
	h := newHarness(t)
	if code := h.run("list"); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.Contains(h.out.String(), "nothing to do") {
		t.Errorf("empty output: %q", h.out.String())
	}

	h.srv.Fail(http.MethodGet, http.StatusInternalServerError)
	if code := h.run("list"); code != 1 {
		t.Errorf("exit code on failure: got %d, want 1", code)
	}
}

func TestAddDoneRm(t *testing.T) {
	h := newHarness(t)

	if code := h.run("add", "Buy", "milk"); code != 0 {
		t.Fatalf("add: exit %d, stderr %q", code, h.err.String())
	}
	if todos := h.srv.Todos(); len(todos) != 1 || todos[0].Task != "Buy milk" {
		t.Fatalf("server after add: %+v", todos)
	}

	if code := h.run("done", "1"); code != 0 {
		t.Fatalf("done: exit %d, stderr %q", code, h.err.String())
	}
	if !h.srv.Todos()[0].Completed {
		t.Errorf("server record not completed")
	}
	if code := h.run("done", "1"); code != 0 {
		t.Fatalf("done again: exit %d", code)
	}
	if h.srv.Todos()[0].Completed {
		t.Errorf("second done did not reopen")
	}

	if code := h.run("done", "42"); code != 2 {
		t.Errorf("done unknown id: got %d, want 2", code)
	}

	if code := h.run("rm", "1"); code != 0 {
		t.Fatalf("rm: exit %d", code)
	}
	if n := len(h.srv.Todos()); n != 0 {
		t.Errorf("server after rm: %d todos", n)
	}
}

func TestRemoteFailures(t *testing.T) {
	h := newHarness(t, model.Todo{ID: 1, Task: "a"})
	h.srv.Fail(http.MethodPost, http.StatusInternalServerError)
	h.srv.Fail(http.MethodPut, http.StatusInternalServerError)
	h.srv.Fail(http.MethodDelete, http.StatusInternalServerError)

	for _, args := range [][]string{{"add", "x"}, {"done", "1"}, {"rm", "1"}} {
		if code := h.run(args...); code != 1 {
			t.Errorf("%v: exit %d, want 1", args, code)
		}
	}
	if todos := h.srv.Todos(); len(todos) != 1 || todos[0].Completed {
		t.Errorf("server changed: %+v", todos)
	}
}

func TestInteractive(t *testing.T) {
	h := newHarness(t)
	called := false
	h.r.Interactive = func(ctx context.Context, ctrl *todolist.Controller, theme ui.Theme) error {
		called = ctrl == h.r.Ctrl
		return nil
	}
	if code := h.run("ls"); code != 0 || !called {
		t.Errorf("ls: exit %d called %v", code, called)
	}

	called = false
	if code := h.run(); code != 0 || !called {
		t.Errorf("no subcommand: exit %d called %v", code, called)
	}

	h.r.Interactive = func(context.Context, *todolist.Controller, ui.Theme) error {
		return errors.New("no tty")
	}
	if code := h.run("ls"); code != 1 {
		t.Errorf("ls failing: exit %d, want 1", code)
	}
}

func TestConfigOutput(t *testing.T) {
	h := newHarness(t)
	h.r.Config.Theme = "neon"
	if code := h.run("config"); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	out := h.out.String()
	if !strings.Contains(out, `server = "`+h.srv.URL+`"`) || !strings.Contains(out, `theme = "neon"`) {
		t.Errorf("config output:\n%s", out)
	}
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	if code := h.run("auth", "status"); code != 0 || !strings.Contains(h.out.String(), "not logged in") {
		t.Fatalf("status before login: exit %d out %q", code, h.out.String())
	}

	h.r.In = strings.NewReader("Bearer tok-123\n")
	if code := h.run("auth", "login"); code != 0 {
		t.Fatalf("login: exit %d, stderr %q", code, h.err.String())
	}
	if tok, _ := h.r.Auth.Token(); tok != "tok-123" {
		t.Errorf("stored token: got %q", tok)
	}

	h.out.Reset()
	if code := h.run("auth", "status"); code != 0 || !strings.Contains(h.out.String(), "source: file") {
		t.Errorf("status after login: exit %d out %q", code, h.out.String())
	}

	if code := h.run("auth", "logout"); code != 0 {
		t.Fatalf("logout: exit %d", code)
	}
	if tok, _ := h.r.Auth.Token(); tok != "" {
		t.Errorf("token after logout: %q", tok)
	}

	h.r.In = strings.NewReader("")
	if code := h.run("auth", "login"); code != 1 {
		t.Errorf("login without input: exit %d, want 1", code)
	}
}
