package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: control-room dark with signal colors
var (
	Primary   = lipgloss.Color("#38BDF8") // Signal Blue
	Secondary = lipgloss.Color("#A3E635") // Lime
	Accent    = lipgloss.Color("#FBBF24") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F59E0B") // Orange
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#E2E8F0") // Off-white
	TextDim   = lipgloss.Color("#64748B") // Slate
	BgDark    = lipgloss.Color("#020617") // Near black
	BgCard    = lipgloss.Color("#0F172A") // Panel
	Border    = lipgloss.Color("#1E293B") // Rail
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	ActiveCard = Card.
			BorderForeground(Primary)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Partial = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Components
var (
	GaugeFilled = lipgloss.NewStyle().
			Background(Secondary)

	GaugeLow = lipgloss.NewStyle().
			Background(Error)

	GaugeEmpty = lipgloss.NewStyle().
			Background(Border)

	Key = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)
