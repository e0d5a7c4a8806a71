package circuit

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/iotlab/internal/scenario"
)

// BoardFile is the YAML form of a board, used to grade a saved build
// without the interactive screen.
//
//	budget: {volts: 5, milliamps: 800}
//	components:
//	  - {id: vcc, type: power}
//	  - {id: r1, type: limiter, value: 4.7k}
//	connections:
//	  - [vcc, r1]
type BoardFile struct {
	Budget struct {
		Volts     float64 `yaml:"volts"`
		MilliAmps float64 `yaml:"milliamps"`
	} `yaml:"budget"`
	Components  []ComponentFile `yaml:"components"`
	Connections [][2]string     `yaml:"connections"`
}

// ComponentFile is one part in a BoardFile. Value accepts plain numbers
// or magnitudes such as "4.7k".
type ComponentFile struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Value  string `yaml:"value"`
	Sensor string `yaml:"sensor"`
	Pin    string `yaml:"pin"`
}

// ReadBoard decodes a BoardFile and builds the board it describes.
func ReadBoard(r io.Reader) (*Board, error) {
	var f BoardFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return f.Build()
}

// Build places every component and wire in file order.
func (f *BoardFile) Build() (*Board, error) {
	b := NewBoard()
	for i, cf := range f.Components {
		c := Component{
			ID:     cf.ID,
			Type:   scenario.ComponentType(cf.Type),
			Pos:    Position{X: cf.X, Y: cf.Y},
			Sensor: cf.Sensor,
			Pin:    cf.Pin,
		}
		if cf.Value != "" {
			v, err := scenario.ParseMagnitude(cf.Value)
			if err != nil {
				return nil, fmt.Errorf("components[%d]: %w", i, err)
			}
			c.Value = v
		}
		if _, err := b.Place(c); err != nil {
			return nil, fmt.Errorf("components[%d]: %w", i, err)
		}
	}
	for i, w := range f.Connections {
		if err := b.Connect(w[0], w[1]); err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
	}
	if !scenario.ValidMagnitude(f.Budget.Volts) || !scenario.ValidMagnitude(f.Budget.MilliAmps) {
		return nil, fmt.Errorf("budget: %w", ErrInvalidValue)
	}
	b.SetBudget(Budget{Volts: f.Budget.Volts, MilliAmps: f.Budget.MilliAmps})
	return b, nil
}
