package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/router"
	"github.com/abhisek/iotlab/internal/screen"
	"github.com/abhisek/iotlab/internal/session"
	"github.com/abhisek/iotlab/internal/ui/components"
	"github.com/abhisek/iotlab/internal/ui/layout"
	"github.com/abhisek/iotlab/internal/ui/theme"
)

// SummaryScreen displays the end-of-session report.
type SummaryScreen struct {
	summary *session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.StatusProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) Status() layout.Status {
	if s.summary == nil {
		return layout.Status{}
	}
	return layout.Status{XP: s.summary.TotalXP, Stability: s.summary.Stability, Visible: true}
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Exit"},
		{Key: "Esc", Description: "Exit"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}
	rep := sum.Report
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render("Shift complete!"))
	b.WriteString("\n\n")

	secs := int(sum.Duration().Seconds())
	b.WriteString(center.Foreground(theme.TextDim).Render(fmt.Sprintf("Duration: %s", components.Clock(secs))))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Attempts: %d    Solved: %d    Failed: %d    Timed out: %d    Accuracy: %.0f%%",
		rep.Total, rep.Solved, rep.Failed, rep.TimedOut, rep.AccuracyRate*100)
	b.WriteString(center.Foreground(theme.Text).Render(stats))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Accent).Render(fmt.Sprintf("XP %d    Stability %d", sum.TotalXP, sum.Stability)))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	section := func(title string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Subtitle.Render(title)))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
	}

	if len(sum.Records) > 0 {
		section("Attempts")
		for _, r := range sum.Records {
			line := fmt.Sprintf("%-22s #%d  %-8s  %5.1f  %3ds", r.QuestionID, r.Attempt, r.Outcome, r.Score, r.ElapsedSeconds)
			if r.BonusUsed {
				line += "  +bonus"
			}
			style := lipgloss.NewStyle().Foreground(outcomeColor(r.Outcome))
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	section("Behaviour")
	gw := min(width-8, 60)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		components.NewGauge("Hesitation", rep.HesitationScore/100, fmt.Sprintf("%.0f", rep.HesitationScore), gw).View()))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		components.NewGauge("Resilience", rep.ResilienceScore/100, fmt.Sprintf("%.0f", rep.ResilienceScore), gw).View()))
	b.WriteString("\n\n")

	section("Insights")
	for _, line := range rep.Insights {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Body.Render("• "+line)))
		b.WriteString("\n")
	}

	return b.String()
}

// outcomeColor returns the theme color for a record outcome.
func outcomeColor(o progression.Outcome) color.Color {
	switch o {
	case progression.OutcomeSolved:
		return theme.Success
	case progression.OutcomeTimeout:
		return theme.Warning
	default:
		return theme.Error
	}
}
