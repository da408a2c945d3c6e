package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box border.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Pending, Error lipgloss.Style
	Selected, Done, Help                          lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	Border                   lipgloss.Border
	BorderColor              lipgloss.Color
}

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

// ThemeByName returns the named theme. Unknown names are an error.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "classic":
		return classic(), nil
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
		t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		t.BoxUnchecked, t.BoxChecked = "◻", "◼"
		t.Border = lipgloss.RoundedBorder()
		t.BorderColor = lipgloss.Color("13")
		return t, nil
	case "mono":
		plain := lipgloss.NewStyle()
		return Theme{
			Name:  "mono",
			Title: plain.Bold(true), Muted: plain, Accent: plain,
			Success: plain, Pending: plain, Error: plain.Bold(true),
			Selected: plain.Reverse(true), Done: plain.Strikethrough(true), Help: plain,
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
			Border:      lipgloss.NormalBorder(),
			BorderColor: lipgloss.Color(""),
		}, nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(Themes, ", "))
}

func classic() Theme {
	return Theme{
		Name:     "classic",
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Help:     lipgloss.NewStyle().Faint(true),

		BoxUnchecked: "☐",
		BoxChecked:   "☑",
		SymDone:      "✔",
		SymPending:   "•",
		Border:       lipgloss.RoundedBorder(),
		BorderColor:  lipgloss.Color("8"),
	}
}
