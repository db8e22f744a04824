package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// Field is a labeled single-line input built on bubbles/textinput.
type Field struct {
	Label string
	Model textinput.Model
}

// NewField creates a blurred field with an optional initial value.
func NewField(label, placeholder, value string, charLimit int) Field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return Field{Label: label, Model: ti}
}

// Focus gives the field keyboard focus.
func (f *Field) Focus() tea.Cmd {
	return f.Model.Focus()
}

// Blur removes keyboard focus.
func (f *Field) Blur() {
	f.Model.Blur()
}

// Focused reports whether the field has focus.
func (f Field) Focused() bool {
	return f.Model.Focused()
}

// Update forwards messages to the underlying input.
func (f Field) Update(msg tea.Msg) (Field, tea.Cmd) {
	var cmd tea.Cmd
	f.Model, cmd = f.Model.Update(msg)
	return f, cmd
}

// View renders the label above a bordered input.
func (f Field) View(width int) string {
	box := theme.InputBlurred
	if f.Focused() {
		box = theme.InputFocused
	}
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render(f.Label)
	return label + "\n" + box.Width(width).Render(f.Model.View())
}

// Value returns the trimmed input value.
func (f Field) Value() string {
	return strings.TrimSpace(f.Model.Value())
}
