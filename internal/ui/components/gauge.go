package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/iotlab/internal/ui/theme"
)

// LowThreshold is the fraction below which a gauge turns red.
const LowThreshold = 0.25

// Gauge displays a horizontal meter such as the countdown or stability.
type Gauge struct {
	Label   string
	Percent float64
	Readout string
	Width   int
}

// NewGauge creates a gauge. Percent is clamped to [0, 1] when rendered.
func NewGauge(label string, percent float64, readout string, width int) Gauge {
	return Gauge{
		Label:   label,
		Percent: percent,
		Readout: readout,
		Width:   width,
	}
}

// View renders the gauge.
func (g Gauge) View() string {
	var result string

	if g.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(g.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	readoutWidth := 0
	if g.Readout != "" {
		readoutWidth = len(g.Readout) + 2
	}

	barWidth := g.Width - labelWidth - readoutWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := min(max(g.Percent, 0), 1)
	filled := int(float64(barWidth) * pct)
	empty := barWidth - filled

	fill := theme.GaugeFilled
	if pct < LowThreshold {
		fill = theme.GaugeLow
	}
	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.GaugeEmpty.Render(strings.Repeat(" ", empty))

	if g.Readout != "" {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("  " + g.Readout)
	}

	return result
}

// Clock formats seconds as m:ss.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
