// Package tui is the interactive todo list: a bubbles list bound to the
// remote collection through a todolist.Controller.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todolist"
	"github.com/idilsaglam/tada/internal/ui"
)

// row adapts a todo to bubbles/list.Item; the id tags the row.
type row struct {
	todo model.Todo
}

func (r row) Title() string       { return r.todo.Task }
func (r row) Description() string { return "" }
func (r row) FilterValue() string { return r.todo.Task }

// Custom delegate to control how rows render (single line)
type rowDelegate struct {
	theme ui.Theme
}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = d.theme.Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+d.theme.Row(r.todo.Task, r.todo.Completed))
}

var (
	addKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleKey = key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle"))
	deleteKey = key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "delete"))
	reloadKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
)

// Model is the Bubble Tea model for the todo list.
type Model struct {
	ctx   context.Context
	ctrl  *todolist.Controller
	theme ui.Theme

	list list.Model

	// Inline add form
	adding bool
	ti     textinput.Model
	addErr string

	width, height int
}

// New builds the model. Nothing is shown until the first load completes.
func New(ctx context.Context, ctrl *todolist.Controller, theme ui.Theme) Model {
	l := list.New(nil, rowDelegate{theme: theme}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.Title
	l.Styles.HelpStyle = theme.Help
	l.Styles.PaginationStyle = theme.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	extra := func() []key.Binding { return []key.Binding{addKey, toggleKey, deleteKey, reloadKey} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		theme:  theme,
		list:   l,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.refreshTitle()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *todolist.Controller, theme ui.Theme) error {
	p := tea.NewProgram(New(ctx, ctrl, theme), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.ctrl.LoadAll(m.ctx)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case todolist.LoadedMsg, todolist.CreatedMsg, todolist.ToggledMsg, todolist.DeletedMsg:
		return m, m.apply(msg)
	case list.FilterMatchesMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		m.clampCursor()
		return m, cmd
	}

	if m.adding {
		return m.updateForm(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case km.String() == "ctrl+c" || km.String() == "q":
			return m, tea.Quit
		case key.Matches(km, addKey):
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.resize()
			m.ti.Focus()
			return m, nil
		case key.Matches(km, toggleKey):
			if id, ok := m.selectedID(); ok {
				return m, m.ctrl.Toggle(m.ctx, id)
			}
			return m, nil
		case key.Matches(km, deleteKey):
			if id, ok := m.selectedID(); ok {
				return m, m.ctrl.Delete(m.ctx, id)
			}
			return m, nil
		case key.Matches(km, reloadKey):
			return m, m.ctrl.LoadAll(m.ctx)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateForm handles input while the add form is open.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			cmd := m.ctrl.Create(m.ctx, m.ti.Value())
			if cmd == nil {
				m.addErr = todolist.ErrEmptyTask.Error()
				return m, nil
			}
			m.closeForm()
			return m, cmd
		case "esc":
			m.closeForm()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeForm() {
	m.adding = false
	m.addErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

// apply patches the visible list for one controller result.
func (m *Model) apply(msg tea.Msg) tea.Cmd {
	ch, ok := m.ctrl.Apply(msg)
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	switch ch.Kind {
	case todolist.ChangeReset:
		cmd = m.list.SetItems(m.items())
	case todolist.ChangeAppend:
		if ch.Index < len(m.list.Items()) {
			cmd = m.list.SetItem(ch.Index, row{todo: ch.Todo})
		} else {
			cmd = m.list.InsertItem(ch.Index, row{todo: ch.Todo})
		}
	case todolist.ChangeMark:
		cmd = m.list.SetItem(ch.Index, row{todo: ch.Todo})
	case todolist.ChangeRemove:
		// RemoveItem indexes the filtered rows with a position in the full
		// list, so a filtered list is rebuilt and filtered again instead.
		if m.list.FilterState() == list.Unfiltered {
			m.list.RemoveItem(ch.Index)
		} else {
			cmd = m.list.SetItems(m.items())
		}
		m.clampCursor()
	}
	m.refreshTitle()
	return cmd
}

func (m Model) items() []list.Item {
	items := make([]list.Item, 0, m.ctrl.Rows().Len())
	for _, t := range m.ctrl.Rows().Items() {
		items = append(items, row{todo: t})
	}
	return items
}

// clampCursor keeps the cursor on a visible row after rows disappear.
func (m *Model) clampCursor() {
	if n := len(m.list.VisibleItems()); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

func (m Model) selectedID() (int64, bool) {
	r, ok := m.list.SelectedItem().(row)
	if !ok {
		return 0, false
	}
	return r.todo.ID, true
}

func (m *Model) refreshTitle() {
	done, pending := m.ctrl.Rows().Stats()
	m.list.Title = m.theme.Header("Todos", done, pending) + "  " +
		m.theme.Muted.Render(ui.ProgressBar(done, done+pending, 12))
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	if h < 1 {
		h = 1
	}
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	m.list.SetSize(w, h)
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		title := "Add new todo"
		if m.addErr != "" {
			title += "  " + m.theme.Error.Render(m.addErr)
		}
		content += "\n" + m.theme.Panel(title+"\n"+m.ti.View())
	}
	return m.theme.Panel(content)
}

// Rows returns the todos held by the list widget, in display order.
func (m Model) Rows() []model.Todo {
	out := make([]model.Todo, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if r, ok := it.(row); ok {
			out = append(out, r.todo)
		}
	}
	return out
}

// Adding reports whether the add form is open.
func (m Model) Adding() bool { return m.adding }

// FormError returns the validation message of the add form.
func (m Model) FormError() string { return strings.TrimSpace(m.addErr) }
