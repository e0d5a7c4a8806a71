package play

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/iotlab/internal/circuit"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/ui/components"
)

// gridColumns is how many cells a row of the breadboard holds before new
// parts wrap to the next row.
const gridColumns = 6

func (p *PlayScreen) circuitKey(key string) tea.Cmd {
	cs := p.sess.Circuit()
	board := cs.Board()
	parts := board.Components()

	if n, err := strconv.Atoi(key); err == nil && len(key) == 1 {
		types := scenario.AllComponentTypes()
		if n >= 1 && n <= len(types) {
			p.place(types[n-1], board)
		}
		return nil
	}

	switch key {
	case "tab":
		if len(parts) > 0 {
			p.cursor = (p.cursor + 1) % len(parts)
		}
		return nil
	case "shift+tab":
		if len(parts) > 0 {
			p.cursor = (p.cursor - 1 + len(parts)) % len(parts)
		}
		return nil
	}

	sel, ok := p.selected(parts)
	if !ok {
		switch key {
		case "b":
			return p.openBudget(board)
		case "c", "e", "x", "backspace", "delete":
			p.flash = "Place a part first (keys 1-6)."
		}
		return nil
	}

	switch key {
	case "up", "down", "left", "right":
		pos := sel.Pos
		switch key {
		case "up":
			pos.Y = max(pos.Y-1, 0)
		case "down":
			pos.Y++
		case "left":
			pos.X = max(pos.X-1, 0)
		case "right":
			pos.X++
		}
		if err := cs.Move(sel.ID, pos); err != nil {
			p.fail(err)
		}
	case "c":
		p.wire(sel.ID, board)
	case "x", "backspace", "delete":
		if err := cs.Remove(sel.ID); err != nil {
			p.fail(err)
			return nil
		}
		if p.wireFrom == sel.ID {
			p.wireFrom = ""
		}
		if p.cursor >= len(parts)-1 {
			p.cursor = max(len(parts)-2, 0)
		}
	case "e":
		return p.openEdit(sel)
	case "b":
		return p.openBudget(board)
	}
	return nil
}

func (p *PlayScreen) selected(parts []circuit.Component) (circuit.Component, bool) {
	if len(parts) == 0 {
		return circuit.Component{}, false
	}
	if p.cursor >= len(parts) {
		p.cursor = len(parts) - 1
	}
	return parts[p.cursor], true
}

func (p *PlayScreen) place(t scenario.ComponentType, board *circuit.Board) {
	n := board.Len()
	c := circuit.Component{
		Type: t,
		Pos:  circuit.Position{X: n % gridColumns, Y: n / gridColumns},
	}
	if _, err := p.sess.Circuit().Place(c); err != nil {
		p.fail(err)
		return
	}
	p.cursor = n
}

// wire toggles a connection between the pending source and id.
func (p *PlayScreen) wire(id string, board *circuit.Board) {
	cs := p.sess.Circuit()
	switch {
	case p.wireFrom == "":
		p.wireFrom = id
		p.flash = "Select the other end and press c again (Esc cancels)."
	case p.wireFrom == id:
		p.wireFrom = ""
	case board.Connected(p.wireFrom, id):
		if err := cs.Disconnect(p.wireFrom, id); err != nil {
			p.fail(err)
		}
		p.wireFrom = ""
	default:
		if err := cs.Connect(p.wireFrom, id); err != nil {
			p.fail(err)
		}
		p.wireFrom = ""
	}
}

func (p *PlayScreen) openEdit(c circuit.Component) tea.Cmd {
	switch c.Type {
	case scenario.Limiter:
		initial := ""
		if c.Value > 0 {
			initial = scenario.FormatMagnitude(c.Value)
		}
		p.input = components.NewTextInput("Resistance (Ω)", "e.g. 220 or 4.7k", initial, 12)
		p.edit = editValue
	case scenario.Sensor:
		p.input = components.NewTextInput("Sensor type", "e.g. capacitive", c.Sensor, 24)
		p.edit = editSensor
	case scenario.Controller:
		p.input = components.NewTextInput("Output pin", "e.g. GPIO4", c.Pin, 12)
		p.edit = editPin
	default:
		p.flash = fmt.Sprintf("A %s has nothing to configure.", strings.ToLower(c.Type.DisplayName()))
		return nil
	}
	p.editID = c.ID
	return p.input.Init()
}

func (p *PlayScreen) openBudget(board *circuit.Board) tea.Cmd {
	b := board.Budget()
	initial := ""
	if b.Volts > 0 || b.MilliAmps > 0 {
		initial = fmt.Sprintf("%g %g", b.Volts, b.MilliAmps)
	}
	p.input = components.NewTextInput("Supply (V mA)", "e.g. 5 800", initial, 16)
	p.edit = editBudget
	return p.input.Init()
}

func (p *PlayScreen) applyEdit() {
	cs := p.sess.Circuit()
	raw := strings.TrimSpace(p.input.Value())

	var err error
	switch p.edit {
	case editValue:
		var v float64
		v, err = scenario.ParseMagnitude(raw)
		if err == nil && v <= 0 {
			err = fmt.Errorf("resistance must be positive")
		}
		if err == nil {
			err = cs.SetValue(p.editID, v)
		}
	case editSensor:
		err = cs.SetSensor(p.editID, strings.ToLower(raw))
	case editPin:
		err = cs.SetPin(p.editID, strings.ToUpper(raw))
	case editBudget:
		var b circuit.Budget
		b, err = parseBudget(raw)
		if err == nil {
			err = cs.SetBudget(b)
		}
	}
	if err != nil {
		p.input.Reject(err.Error())
		return
	}
	p.cancelEdit()
}

// parseBudget reads "volts milliamps", e.g. "5 800" or "3.3 1k".
func parseBudget(s string) (circuit.Budget, error) {
	fields := strings.Fields(strings.NewReplacer(",", " ", "/", " ").Replace(s))
	if len(fields) != 2 {
		return circuit.Budget{}, fmt.Errorf("enter volts and milliamps, e.g. 5 800")
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(fields[0]), "v"), 64)
	if err != nil || !scenario.ValidMagnitude(v) {
		return circuit.Budget{}, fmt.Errorf("invalid voltage %q", fields[0])
	}
	ma, err := scenario.ParseMagnitude(strings.TrimSuffix(strings.ToLower(fields[1]), "ma"))
	if err != nil {
		return circuit.Budget{}, fmt.Errorf("invalid current %q", fields[1])
	}
	return circuit.Budget{Volts: v, MilliAmps: ma}, nil
}
