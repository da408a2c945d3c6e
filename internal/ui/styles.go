package ui

import (
	"fmt"
	"io"
)

// OK prints a success line.
func (t Theme) OK(w io.Writer, msg string) {
	fmt.Fprintln(w, t.Success.Render(t.SymDone+" "+msg))
}

// Fail prints an error line.
func (t Theme) Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, t.Error.Render("✖ "+msg))
}

// Row renders a todo line: checkbox then task, the done marker when completed.
func (t Theme) Row(task string, completed bool) string {
	if completed {
		return t.Success.Render(t.BoxChecked) + " " + t.Done.Render(task)
	}
	return t.Muted.Render(t.BoxUnchecked) + " " + task
}
