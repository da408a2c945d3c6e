package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if width < 5 {
		width = 5
	}
	pct := 0
	filled := 0
	if total > 0 {
		filled = int(float64(done) / float64(total) * float64(width))
		pct = int(float64(done) / float64(total) * 100)
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel frames inner with the theme border.
func (t Theme) Panel(inner string) string {
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(inner)
}

// Header renders the list title with live counts.
func (t Theme) Header(title string, done, pending int) string {
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render(title),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), done+pending,
	)
}
