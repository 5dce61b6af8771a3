// Package tui holds the terminal screens of the synvoy CLI.
package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used by the screens. All colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Danger     lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	Accent:     lipgloss.Color("39"),
	Success:    lipgloss.Color("42"),
	Warning:    lipgloss.Color("214"),
	Danger:     lipgloss.Color("196"),
	Border:     lipgloss.Color("240"),
}

type styles struct {
	title      lipgloss.Style
	text       lipgloss.Style
	faint      lipgloss.Style
	strong     lipgloss.Style
	cell       lipgloss.Style
	focused    lipgloss.Style
	countdown  lipgloss.Style
	expired    lipgloss.Style
	deletion   lipgloss.Style
	errorText  lipgloss.Style
	successMsg lipgloss.Style
}

func newStyles(theme Theme) styles {
	cell := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Foreground(theme.NormalText).
		Bold(true).
		Width(3).
		Align(lipgloss.Center)

	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		text:       lipgloss.NewStyle().Foreground(theme.NormalText),
		faint:      lipgloss.NewStyle().Foreground(theme.FaintText),
		strong:     lipgloss.NewStyle().Bold(true).Foreground(theme.NormalText),
		cell:       cell,
		focused:    cell.BorderForeground(theme.Accent),
		countdown:  lipgloss.NewStyle().Foreground(theme.Accent),
		expired:    lipgloss.NewStyle().Foreground(theme.Warning),
		deletion:   lipgloss.NewStyle().Foreground(theme.Danger),
		errorText:  lipgloss.NewStyle().Foreground(theme.Danger),
		successMsg: lipgloss.NewStyle().Bold(true).Foreground(theme.Success),
	}
}
