package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todolist"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// InteractiveFunc runs the interactive list until the user quits.
type InteractiveFunc func(ctx context.Context, ctrl *todolist.Controller, theme ui.Theme) error

// Runner holds everything a subcommand needs.
type Runner struct {
	Config *config.Config
	Ctrl   *todolist.Controller
	Auth   auth.Store
	Theme  ui.Theme

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Interactive defaults to tui.Run.
	Interactive InteractiveFunc
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return r.doInteractive(ctx)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		r.PrintHelp()
		return 0

	case "ls":
		return r.doInteractive(ctx)

	case "list":
		return r.doList(ctx)

	case "add":
		if len(a) == 0 {
			r.fail("usage: tada add <task...>")
			return 2
		}
		return r.doAdd(ctx, strings.Join(a, " "))

	case "done":
		id, code := r.parseID("done", a)
		if code != 0 {
			return code
		}
		return r.doToggle(ctx, id)

	case "rm":
		id, code := r.parseID("rm", a)
		if code != 0 {
			return code
		}
		return r.doRemove(ctx, id)

	case "config":
		return r.doConfig()

	case "auth":
		if len(a) == 0 {
			r.fail("usage: tada auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return r.doAuthLogin()
		case "logout":
			return r.doAuthLogout()
		case "status":
			return r.doAuthStatus()
		default:
			r.fail("usage: tada auth <login|logout|status>")
			return 2
		}
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.Err)
	r.PrintHelp()
	return 2
}

func (r *Runner) PrintHelp() {
	fmt.Fprintf(r.Out, `tada - a terminal client for a REST todo service

Usage:
  tada [flags] [subcommand] [args]   (no subcommand runs ls)

Subcommands:
  ls                 Interactive list (a add, space toggle, x delete, r reload)
  list               Print the list (-group splits pending/done)
  add <task...>      Add a new todo (task can be multiple words)
  done <id>          Toggle completion of the todo with this id
  rm <id>            Delete the todo with this id
  config             Print the effective configuration
  auth <login|logout|status>   Bearer token for the service

Flags:
  -server URL  -timeout 10s  -theme classic|neon|mono  -group
  -log-file PATH  -log-level LEVEL  -log-format text|json|logfmt

Examples:
  tada add "Buy milk"
  tada ls
  tada done 2
  tada rm 3
`)
}

func (r *Runner) parseID(cmd string, a []string) (int64, int) {
	if len(a) != 1 {
		r.fail(fmt.Sprintf("usage: tada %s <id>", cmd))
		return 0, 2
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		r.fail(cmd + ": not an id: " + a[0])
		return 0, 2
	}
	return id, 0
}

// ---------------------------------------------------
// Todo subcommands (remote CRUD)
// ---------------------------------------------------

func (r *Runner) doInteractive(ctx context.Context) int {
	run := r.Interactive
	if run == nil {
		run = tui.Run
	}
	if err := run(ctx, r.Ctrl, r.Theme); err != nil {
		r.fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func (r *Runner) load(ctx context.Context) bool {
	if _, err := r.Ctrl.Do(r.Ctrl.LoadAll(ctx)); err != nil {
		r.fail("load: " + err.Error())
		return false
	}
	return true
}

func (r *Runner) doList(ctx context.Context) int {
	if !r.load(ctx) {
		return 1
	}
	items := r.Ctrl.Rows().Items()
	if len(items) == 0 {
		fmt.Fprintln(r.Out, r.Theme.Muted.Render("nothing to do"))
		return 0
	}

	var lines []string
	if r.Config.Group {
		var done, pending []model.Todo
		for _, t := range items {
			if t.Completed {
				done = append(done, t)
			} else {
				pending = append(pending, t)
			}
		}
		lines = append(lines, r.Theme.Pending.Render("Pending"))
		lines = append(lines, r.rows(pending)...)
		lines = append(lines, "", r.Theme.Success.Render("Done"))
		lines = append(lines, r.rows(done)...)
	} else {
		lines = r.rows(items)
	}

	d, p := r.Ctrl.Rows().Stats()
	lines = append(lines, "", r.Theme.Header("Todos", d, p), ui.ProgressBar(d, d+p, 24))
	fmt.Fprintln(r.Out, r.Theme.Panel(strings.Join(lines, "\n")))
	return 0
}

func (r *Runner) rows(todos []model.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, fmt.Sprintf("%s %s", r.Theme.Muted.Render(fmt.Sprintf("%4d", t.ID)), r.Theme.Row(t.Task, t.Completed)))
	}
	return out
}

func (r *Runner) doAdd(ctx context.Context, text string) int {
	if _, err := todolist.NormalizeTask(text); err != nil {
		r.fail("add: " + err.Error())
		return 2
	}
	ch, err := r.Ctrl.Do(r.Ctrl.Create(ctx, text))
	if err != nil {
		r.fail("add: " + err.Error())
		return 1
	}
	r.ok(fmt.Sprintf("added #%d", ch.Todo.ID))
	return 0
}

func (r *Runner) doToggle(ctx context.Context, id int64) int {
	if !r.load(ctx) {
		return 1
	}
	cmd := r.Ctrl.Toggle(ctx, id)
	if cmd == nil {
		r.fail(fmt.Sprintf("no todo with id %d", id))
		fmt.Fprintln(r.Err, r.Theme.Muted.Render("Hint: run `tada list` to see ids"))
		return 2
	}
	ch, err := r.Ctrl.Do(cmd)
	if err != nil {
		r.fail("done: " + err.Error())
		return 1
	}
	if ch.Todo.Completed {
		r.ok(fmt.Sprintf("#%d done", id))
	} else {
		r.ok(fmt.Sprintf("#%d reopened", id))
	}
	return 0
}

func (r *Runner) doRemove(ctx context.Context, id int64) int {
	if _, err := r.Ctrl.Do(r.Ctrl.Delete(ctx, id)); err != nil {
		r.fail("rm: " + err.Error())
		return 1
	}
	r.ok(fmt.Sprintf("removed #%d", id))
	return 0
}

func (r *Runner) doConfig() int {
	if err := toml.NewEncoder(r.Out).Encode(r.Config); err != nil {
		r.fail("config: " + err.Error())
		return 1
	}
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func (r *Runner) doAuthLogin() int {
	fmt.Fprint(r.Out, "Paste your token: ")
	sc := bufio.NewScanner(r.In)
	if !sc.Scan() {
		msg := "no input"
		if err := sc.Err(); err != nil {
			msg = err.Error()
		}
		r.fail("read token: " + msg)
		return 1
	}
	fmt.Fprintln(r.Out)
	if err := r.Auth.Set(sc.Text(), nil); err != nil {
		r.fail("save token: " + err.Error())
		return 1
	}
	r.ok("logged in")
	return 0
}

func (r *Runner) doAuthLogout() int {
	ti, _ := r.Auth.Get()
	if ti != nil && ti.Source == "env" {
		r.ok("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := r.Auth.Delete(); err != nil {
		r.fail("logout: " + err.Error())
		return 1
	}
	r.ok("logged out")
	return 0
}

func (r *Runner) doAuthStatus() int {
	ti, err := r.Auth.Get()
	if err != nil {
		r.fail("auth: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(r.Out, r.Theme.Muted.Render("not logged in"))
		fmt.Fprintln(r.Out, "Run: tada auth login")
		return 0
	}
	fmt.Fprintf(r.Out, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(r.Out, "expires: (unknown)")
	case ti.Expired(time.Now()):
		fmt.Fprintf(r.Out, "expires: %s (expired)\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(r.Out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(r.Out, "env override: "+auth.EnvToken)
	return 0
}

func (r *Runner) ok(msg string)   { r.Theme.OK(r.Out, msg) }
func (r *Runner) fail(msg string) { r.Theme.Fail(r.Err, msg) }
