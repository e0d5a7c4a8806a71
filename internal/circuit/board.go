package circuit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/google/uuid"
)

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrDuplicateID      = errors.New("duplicate component id")
	ErrInvalidType      = errors.New("invalid component type")
	ErrSelfConnection   = errors.New("component cannot connect to itself")
	ErrWrongType        = errors.New("attribute does not apply to component type")
	ErrInvalidValue     = errors.New("component value must be finite and not negative")
)

// Position is a grid cell on the breadboard.
type Position struct {
	X int
	Y int
}

// Component is a part placed by the player. Value applies to limiters,
// Sensor to sensors and Pin to controllers.
type Component struct {
	ID     string
	Type   scenario.ComponentType
	Pos    Position
	Value  float64
	Sensor string
	Pin    string
}

// Connection is an unordered wire between two component ids.
type Connection struct {
	A string
	B string
}

func (c Connection) joins(x, y string) bool {
	return (c.A == x && c.B == y) || (c.A == y && c.B == x)
}

func (c Connection) touches(id string) bool {
	return c.A == id || c.B == id
}

// Budget is the player's configured supply.
type Budget struct {
	Volts     float64
	MilliAmps float64
}

// Board owns the player's components and wires. Removing a component
// removes every wire attached to it, so no connection ever dangles.
type Board struct {
	components  []*Component
	byID        map[string]*Component
	connections []Connection
	budget      Budget
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{byID: make(map[string]*Component)}
}

// Place adds a component and returns its id. An empty ID is replaced by
// a generated one.
func (b *Board) Place(c Component) (string, error) {
	if !c.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := b.byID[c.ID]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	if !scenario.ValidMagnitude(c.Value) {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, c.Value)
	}
	stored := c
	b.components = append(b.components, &stored)
	b.byID[c.ID] = &stored
	return c.ID, nil
}

// Remove deletes a component and all of its connections.
func (b *Board) Remove(id string) error {
	if _, ok := b.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	delete(b.byID, id)
	b.components = slices.DeleteFunc(b.components, func(c *Component) bool { return c.ID == id })
	b.connections = slices.DeleteFunc(b.connections, func(c Connection) bool { return c.touches(id) })
	return nil
}

// Move relocates a component.
func (b *Board) Move(id string, pos Position) error {
	c, err := b.lookup(id)
	if err != nil {
		return err
	}
	c.Pos = pos
	return nil
}

// SetValue sets a limiter's numeric value.
func (b *Board) SetValue(id string, v float64) error {
	c, err := b.lookupType(id, scenario.Limiter)
	if err != nil {
		return err
	}
	if !scenario.ValidMagnitude(v) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	c.Value = v
	return nil
}

// SetSensor sets a sensor's sub-type.
func (b *Board) SetSensor(id, subType string) error {
	c, err := b.lookupType(id, scenario.Sensor)
	if err != nil {
		return err
	}
	c.Sensor = subType
	return nil
}

// SetPin sets a controller's configured pin label.
func (b *Board) SetPin(id, pin string) error {
	c, err := b.lookupType(id, scenario.Controller)
	if err != nil {
		return err
	}
	c.Pin = pin
	return nil
}

// Connect wires two existing components. Connecting an already-wired pair
// is a no-op.
func (b *Board) Connect(a, c string) error {
	if a == c {
		return ErrSelfConnection
	}
	if _, err := b.lookup(a); err != nil {
		return err
	}
	if _, err := b.lookup(c); err != nil {
		return err
	}
	if b.Connected(a, c) {
		return nil
	}
	b.connections = append(b.connections, Connection{A: a, B: c})
	return nil
}

// Disconnect removes the wire between two components, if present.
func (b *Board) Disconnect(a, c string) {
	b.connections = slices.DeleteFunc(b.connections, func(conn Connection) bool { return conn.joins(a, c) })
}

// Connected reports whether a wire joins a and c.
func (b *Board) Connected(a, c string) bool {
	return slices.ContainsFunc(b.connections, func(conn Connection) bool { return conn.joins(a, c) })
}

// Degree returns the number of wires attached to id.
func (b *Board) Degree(id string) int {
	n := 0
	for _, conn := range b.connections {
		if conn.touches(id) {
			n++
		}
	}
	return n
}

// SetBudget sets the supply voltage and current capacity.
func (b *Board) SetBudget(budget Budget) {
	b.budget = budget
}

// Budget returns the configured supply.
func (b *Board) Budget() Budget {
	return b.budget
}

// Component returns a copy of the component with the given id.
func (b *Board) Component(id string) (Component, bool) {
	c, ok := b.byID[id]
	if !ok {
		return Component{}, false
	}
	return *c, true
}

// Components returns copies of all components in placement order.
func (b *Board) Components() []Component {
	out := make([]Component, len(b.components))
	for i, c := range b.components {
		out[i] = *c
	}
	return out
}

// ComponentsOfType returns copies of the components with type t.
func (b *Board) ComponentsOfType(t scenario.ComponentType) []Component {
	var out []Component
	for _, c := range b.components {
		if c.Type == t {
			out = append(out, *c)
		}
	}
	return out
}

// Connections returns a copy of all wires.
func (b *Board) Connections() []Connection {
	return slices.Clone(b.connections)
}

// Len returns the number of placed components.
func (b *Board) Len() int {
	return len(b.components)
}

// Clear removes every component and wire. The budget is kept.
func (b *Board) Clear() {
	b.components = nil
	b.connections = nil
	b.byID = make(map[string]*Component)
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	nb := NewBoard()
	for _, c := range b.components {
		cp := *c
		nb.components = append(nb.components, &cp)
		nb.byID[cp.ID] = &cp
	}
	nb.connections = slices.Clone(b.connections)
	nb.budget = b.budget
	return nb
}

func (b *Board) lookup(id string) (*Component, error) {
	c, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	return c, nil
}

func (b *Board) lookupType(id string, t scenario.ComponentType) (*Component, error) {
	c, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	if c.Type != t {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWrongType, id, c.Type)
	}
	return c, nil
}
