package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/iotlab/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with the lab styling. It is used for
// short edits such as a limiter value or a controller pin.
type TextInput struct {
	Model    textinput.Model
	Label    string
	MaxWidth int
	errMsg   string
}

// NewTextInput creates a focused text input.
func NewTextInput(label, placeholder, initial string, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}
	if initial != "" {
		ti.SetValue(initial)
	}

	return TextInput{
		Model:    ti,
		Label:    label,
		MaxWidth: maxWidth,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		t.errMsg = ""
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input with its label and any rejection message.
func (t TextInput) View() string {
	view := lipgloss.NewStyle().Foreground(theme.Accent).Render(t.Label+": ") + t.Model.View()
	if t.errMsg != "" {
		view += "  " + theme.Incorrect.Render("✗ "+t.errMsg)
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// Reject keeps the input open and shows why the value was refused.
func (t *TextInput) Reject(msg string) {
	t.errMsg = msg
}

// Err returns the current rejection message.
func (t TextInput) Err() string {
	return t.errMsg
}
