// Package todolist binds the remote todo collection to the visible list.
//
// Every operation is split in two halves. The request half is a tea.Cmd that
// runs off the UI loop and reports back with a message; the mutation half,
// Apply, runs on the UI loop and changes exactly one row, and only when the
// request succeeded. Failures never reach the user: they are logged and the
// view is left as it was.
package todolist

import (
	"context"
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/model"
)

// ErrEmptyTask is returned for blank form input.
var ErrEmptyTask = errors.New("task cannot be empty")

// Client is the remote side of the controller. *api.Client implements it.
type Client interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, task string) (model.Todo, error)
	Update(ctx context.Context, t model.Todo) error
	Delete(ctx context.Context, id int64) error
}

// Result messages delivered back to the UI loop.
type (
	LoadedMsg struct {
		Todos []model.Todo
		Err   error
	}
	CreatedMsg struct {
		Todo model.Todo
		Err  error
	}
	ToggledMsg struct {
		ID        int64
		Completed bool // value sent to the server
		Err       error
	}
	DeletedMsg struct {
		ID  int64
		Err error
	}
)

// ChangeKind says how the visible list must be patched.
type ChangeKind int

const (
	ChangeReset ChangeKind = iota + 1
	ChangeAppend
	ChangeMark
	ChangeRemove
)

// Change describes one applied mutation. Index is the row position
// (before removal for ChangeRemove).
type Change struct {
	Kind  ChangeKind
	Index int
	Todo  model.Todo
}

// Controller owns the displayed collection.
type Controller struct {
	client Client
	rows   *Collection
	logger *log.Logger
}

// New returns a controller with an empty collection.
func New(client Client, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{client: client, rows: NewCollection(), logger: logger}
}

// Rows exposes the displayed collection. Callers must not mutate it.
func (c *Controller) Rows() *Collection { return c.rows }

// NormalizeTask trims form input and rejects blank text.
func NormalizeTask(text string) (string, error) {
	task := strings.TrimSpace(text)
	if task == "" {
		return "", ErrEmptyTask
	}
	return task, nil
}

// LoadAll fetches the full collection.
func (c *Controller) LoadAll(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		todos, err := c.client.List(ctx)
		return LoadedMsg{Todos: todos, Err: err}
	}
}

// Create submits a new task. It returns nil, and sends nothing, for blank text.
func (c *Controller) Create(ctx context.Context, text string) tea.Cmd {
	task, err := NormalizeTask(text)
	if err != nil {
		return nil
	}
	return func() tea.Msg {
		t, err := c.client.Create(ctx, task)
		return CreatedMsg{Todo: t, Err: err}
	}
}

// Toggle sends the displayed record of id with completed inverted.
// It returns nil when id is not displayed.
func (c *Controller) Toggle(ctx context.Context, id int64) tea.Cmd {
	t, ok := c.rows.Get(id)
	if !ok {
		return nil
	}
	next := t.Toggled()
	return func() tea.Msg {
		err := c.client.Update(ctx, next)
		return ToggledMsg{ID: id, Completed: next.Completed, Err: err}
	}
}

// Delete asks the server to remove id.
func (c *Controller) Delete(ctx context.Context, id int64) tea.Cmd {
	return func() tea.Msg {
		return DeletedMsg{ID: id, Err: c.client.Delete(ctx, id)}
	}
}

// Apply performs the local mutation for a result message.
// ok is false when msg is not a controller message, the request failed, or
// the affected row is no longer displayed.
func (c *Controller) Apply(msg tea.Msg) (Change, bool) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			c.logger.Warn("load failed", "err", msg.Err)
			return Change{}, false
		}
		c.rows.Reset(msg.Todos)
		c.logger.Debug("loaded", "count", c.rows.Len())
		return Change{Kind: ChangeReset}, true

	case CreatedMsg:
		if msg.Err != nil {
			c.logger.Warn("create failed", "err", msg.Err)
			return Change{}, false
		}
		i := c.rows.Append(msg.Todo)
		c.logger.Debug("created", "id", msg.Todo.ID)
		return Change{Kind: ChangeAppend, Index: i, Todo: msg.Todo}, true

	case ToggledMsg:
		if msg.Err != nil {
			c.logger.Warn("toggle failed", "id", msg.ID, "err", msg.Err)
			return Change{}, false
		}
		i := c.rows.SetCompleted(msg.ID, msg.Completed)
		if i < 0 {
			return Change{}, false
		}
		t, _ := c.rows.Get(msg.ID)
		return Change{Kind: ChangeMark, Index: i, Todo: t}, true

	case DeletedMsg:
		if msg.Err != nil {
			c.logger.Warn("delete failed", "id", msg.ID, "err", msg.Err)
			return Change{}, false
		}
		t, _ := c.rows.Get(msg.ID)
		i := c.rows.Remove(msg.ID)
		if i < 0 {
			return Change{}, false
		}
		return Change{Kind: ChangeRemove, Index: i, Todo: t}, true
	}
	return Change{}, false
}

// Do runs cmd to completion and applies its result. It is the synchronous
// path used outside the TUI.
func (c *Controller) Do(cmd tea.Cmd) (Change, error) {
	if cmd == nil {
		return Change{}, nil
	}
	msg := cmd()
	ch, _ := c.Apply(msg)
	return ch, resultErr(msg)
}

func resultErr(msg tea.Msg) error {
	switch msg := msg.(type) {
	case LoadedMsg:
		return msg.Err
	case CreatedMsg:
		return msg.Err
	case ToggledMsg:
		return msg.Err
	case DeletedMsg:
		return msg.Err
	}
	return nil
}
