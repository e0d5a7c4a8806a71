package crisis

import (
	"errors"
	"fmt"
)

// ErrSlotOutOfRange is returned when a slot index is outside the sequence.
var ErrSlotOutOfRange = errors.New("crisis: slot out of range")

// Sequence is a fixed-length row of action slots. An action id occupies at
// most one slot at a time; an empty string marks an empty slot.
type Sequence struct {
	slots []string
}

// NewSequence returns an empty sequence with n slots.
func NewSequence(n int) *Sequence {
	if n < 0 {
		n = 0
	}
	return &Sequence{slots: make([]string, n)}
}

// Len returns the number of slots.
func (s *Sequence) Len() int { return len(s.slots) }

// Place puts actionID into slot, moving it out of any slot it held before.
// Whatever was in the target slot is dropped back to the palette.
func (s *Sequence) Place(slot int, actionID string) error {
	if err := s.check(slot); err != nil {
		return err
	}
	if actionID == "" {
		s.slots[slot] = ""
		return nil
	}
	for i, id := range s.slots {
		if id == actionID {
			s.slots[i] = ""
		}
	}
	s.slots[slot] = actionID
	return nil
}

// Clear empties slot.
func (s *Sequence) Clear(slot int) error {
	if err := s.check(slot); err != nil {
		return err
	}
	s.slots[slot] = ""
	return nil
}

// Swap exchanges the contents of two slots.
func (s *Sequence) Swap(i, j int) error {
	if err := s.check(i); err != nil {
		return err
	}
	if err := s.check(j); err != nil {
		return err
	}
	s.slots[i], s.slots[j] = s.slots[j], s.slots[i]
	return nil
}

// At returns the action in slot, or "" when empty.
func (s *Sequence) At(slot int) (string, error) {
	if err := s.check(slot); err != nil {
		return "", err
	}
	return s.slots[slot], nil
}

// SlotOf returns the slot holding actionID, or -1.
func (s *Sequence) SlotOf(actionID string) int {
	for i, id := range s.slots {
		if id != "" && id == actionID {
			return i
		}
	}
	return -1
}

// Filled returns the number of non-empty slots.
func (s *Sequence) Filled() int {
	n := 0
	for _, id := range s.slots {
		if id != "" {
			n++
		}
	}
	return n
}

// Slots returns a copy of the slot contents.
func (s *Sequence) Slots() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

// Reset empties every slot.
func (s *Sequence) Reset() {
	for i := range s.slots {
		s.slots[i] = ""
	}
}

func (s *Sequence) check(slot int) error {
	if slot < 0 || slot >= len(s.slots) {
		return fmt.Errorf("%w: %d (length %d)", ErrSlotOutOfRange, slot, len(s.slots))
	}
	return nil
}
