package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/iotlab/internal/circuit"
	"github.com/abhisek/iotlab/internal/crisis"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/ui/components"
	"github.com/abhisek/iotlab/internal/ui/theme"
)

func (p *PlayScreen) View(width, height int) string {
	if p.quitting {
		return renderQuitConfirm(width)
	}
	if p.ending {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  Saving your session...")
	}

	inner := max(width-4, 20)
	var b strings.Builder
	b.WriteString(p.renderBriefing(inner))
	b.WriteString("\n")
	b.WriteString(p.renderGauges(inner))
	b.WriteString("\n\n")

	if p.sess.Mode == scenario.KindCrisis {
		b.WriteString(p.renderCrisis(inner))
	} else {
		b.WriteString(p.renderCircuit(inner))
	}

	if p.edit != editNone {
		b.WriteString("\n  ")
		b.WriteString(p.input.View())
		b.WriteString("\n")
	}
	if p.flash != "" {
		b.WriteString("\n  ")
		b.WriteString(theme.Hint.Render(p.flash))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (p *PlayScreen) renderBriefing(width int) string {
	sc := p.sess.Machine().Scenario()
	head := theme.Title.Render(sc.Title) + "  " + difficultyBadge(sc.Difficulty)
	body := lipgloss.NewStyle().Width(width).Foreground(theme.Text).Render(sc.Narrative)
	return head + "\n" + body
}

func difficultyBadge(d scenario.Difficulty) string {
	style := lipgloss.NewStyle().Bold(true)
	switch d {
	case scenario.DifficultyEasy:
		style = style.Foreground(theme.Success)
	case scenario.DifficultyMedium:
		style = style.Foreground(theme.Warning)
	default:
		style = style.Foreground(theme.Error)
	}
	return style.Render(strings.ToUpper(string(d)))
}

func (p *PlayScreen) renderGauges(width int) string {
	st := p.state()
	half := max(width/2-2, 20)

	var timerPct float64
	if st.TimerLimit > 0 {
		timerPct = float64(st.TimerSeconds) / float64(st.TimerLimit)
	}
	timer := components.NewGauge("Time", timerPct, components.Clock(st.TimerSeconds), half).View()
	stab := components.NewGauge("Stability", float64(st.Stability)/100, fmt.Sprintf("%d", st.Stability), half).View()

	line := timer + "  " + stab
	attempts := fmt.Sprintf("Attempts left: %d/%d", st.AttemptsLeft, st.MaxAttempts)
	if p.bonusFlash > 0 {
		attempts += "   " + theme.Key.Render(fmt.Sprintf("+%ds take your time", p.bonusFlash))
	}
	line += "\n" + theme.Subtitle.Render(attempts)

	switch {
	case st.Succeeded:
		line += "   " + theme.Correct.Render(fmt.Sprintf("SOLVED  grade %s  +%d XP", st.Grade, st.ScenarioXP))
	case st.TimedOut:
		line += "   " + theme.Incorrect.Render("TIME EXPIRED")
	case st.Failed:
		line += "   " + theme.Incorrect.Render("OUT OF ATTEMPTS")
	}
	return line
}

// labels gives each part a short stable name such as "Limiter 2".
func labels(parts []circuit.Component) map[string]string {
	seen := make(map[scenario.ComponentType]int)
	out := make(map[string]string, len(parts))
	for _, c := range parts {
		seen[c.Type]++
		out[c.ID] = fmt.Sprintf("%s %d", c.Type.DisplayName(), seen[c.Type])
	}
	return out
}

func (p *PlayScreen) renderCircuit(width int) string {
	cs := p.sess.Circuit()
	board := cs.Board()
	parts := board.Components()
	names := labels(parts)

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render("Palette  "))
	for i, t := range scenario.AllComponentTypes() {
		b.WriteString(theme.Key.Render(fmt.Sprintf("%d", i+1)))
		b.WriteString(" " + t.DisplayName() + "  ")
	}
	b.WriteString("\n\n")

	var left strings.Builder
	left.WriteString(theme.Subtitle.Render("Parts") + "\n")
	if len(parts) == 0 {
		left.WriteString(theme.Hint.Render("  empty board") + "\n")
	}
	for i, c := range parts {
		marker := "  "
		style := theme.Unselected
		if i == p.cursor {
			marker = "> "
			style = theme.Selected
		}
		line := marker + names[c.ID] + detail(c)
		if c.ID == p.wireFrom {
			line += "  " + theme.Key.Render("⚡ wiring")
		}
		left.WriteString(style.Render(line) + "\n")
	}

	var right strings.Builder
	right.WriteString(theme.Subtitle.Render("Wires") + "\n")
	conns := board.Connections()
	if len(conns) == 0 {
		right.WriteString(theme.Hint.Render("  none") + "\n")
	}
	for _, w := range conns {
		right.WriteString(fmt.Sprintf("  %s ─ %s\n", names[w.A], names[w.B]))
	}
	bud := board.Budget()
	right.WriteString("\n" + theme.Subtitle.Render("Supply") + "\n")
	right.WriteString(fmt.Sprintf("  %g V / %s mA\n", bud.Volts, scenario.FormatMagnitude(bud.MilliAmps)))

	col := max(width/2-2, 24)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Card.Width(col).Render(left.String()),
		"  ",
		theme.Card.Width(col).Render(right.String()),
	))
	b.WriteString("\n")

	if res := cs.LastResult(); res != nil {
		b.WriteString(renderCircuitResult(res, p.state(), width))
	}
	return b.String()
}

func detail(c circuit.Component) string {
	switch c.Type {
	case scenario.Limiter:
		if c.Value > 0 {
			return "  " + scenario.FormatMagnitude(c.Value) + "Ω"
		}
		return "  (no value)"
	case scenario.Sensor:
		if c.Sensor != "" {
			return "  " + c.Sensor
		}
	case scenario.Controller:
		if c.Pin != "" {
			return "  " + c.Pin
		}
	}
	return ""
}

func renderCircuitResult(res *circuit.Result, st progression.AttemptState, width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Structural %3.0f   Calibration %3.0f   Resource %3.0f\n",
		res.Structural, res.Calibration, res.Resource))
	for _, e := range res.Errors {
		b.WriteString(theme.Incorrect.Render("  ✗ "+e) + "\n")
	}
	b.WriteString(feedbackStyle(res.Success, st).Width(width).Render(res.Feedback))
	b.WriteString("\n")
	return b.String()
}

func feedbackStyle(success bool, st progression.AttemptState) lipgloss.Style {
	switch {
	case success:
		return theme.Correct
	case st.Phase == progression.PhaseActive:
		return theme.Partial
	default:
		return theme.Incorrect
	}
}

func (p *PlayScreen) renderCrisis(width int) string {
	cs := p.sess.Crisis()
	sc := cs.Scenario()
	slots := cs.Slots()
	res := cs.LastResult()

	var left strings.Builder
	left.WriteString(theme.Subtitle.Render("Actions") + "\n")
	for i, a := range sc.Actions {
		left.WriteString(theme.Key.Render(fmt.Sprintf("%d", i+1)) + " " + a.Label + "\n")
	}

	var right strings.Builder
	right.WriteString(theme.Subtitle.Render("Response plan") + "\n")
	for i, id := range slots {
		marker := "  "
		style := theme.Unselected
		if i == p.cursor {
			marker = "> "
			style = theme.Selected
		}
		label := theme.Hint.Render("(empty)")
		if id != "" {
			label = sc.ActionLabel(id)
		}
		line := style.Render(fmt.Sprintf("%s%d. ", marker, i+1)) + label
		if res != nil && i < len(res.Slots) {
			line += "  " + slotMark(res.Slots[i])
		}
		right.WriteString(line + "\n")
	}

	col := max(width/2-2, 24)
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Card.Width(col).Render(left.String()),
		"  ",
		theme.ActiveCard.Width(col).Render(right.String()),
	))
	b.WriteString("\n")

	if res != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Order %3.0f   Reasoning %3.0f   Time bonus %d   Stability %+d\n",
			res.OrderScore, res.ReasoningScore, res.TimeBonus, res.StabilityDelta))
		b.WriteString(feedbackStyle(res.Success, p.state()).Width(width).Render(res.Feedback))
		b.WriteString("\n")
	}
	return b.String()
}

func slotMark(c crisis.SlotClass) string {
	switch c {
	case crisis.SlotCorrect:
		return theme.Correct.Render("✓")
	case crisis.SlotPartial:
		return theme.Partial.Render("~")
	default:
		return theme.Incorrect.Render("✗")
	}
}

func renderQuitConfirm(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(center.Foreground(theme.Text).Bold(true).Render("End this session?"))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render("Your decisions are saved and the summary is uploaded."))
	b.WriteString("\n\n")
	b.WriteString(center.Foreground(theme.Success).Render("[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Primary).Render("[N] No, keep going"))
	return b.String()
}
