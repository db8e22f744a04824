package components

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// ChosenMsg reports that the user picked the option at Index.
type ChosenMsg struct {
	Index int
}

// MultiChoice is a multiple-choice selector. It only tracks the cursor and
// the chosen option; it never knows which option is correct.
type MultiChoice struct {
	Question string
	Options  []string
	Cursor   int
	Chosen   int
	Locked   bool
}

// NewMultiChoice creates a selector with chosen as the preselected index,
// or -1 for none.
func NewMultiChoice(question string, options []string, chosen int) MultiChoice {
	cursor := 0
	if chosen >= 0 && chosen < len(options) {
		cursor = chosen
	} else {
		chosen = -1
	}
	return MultiChoice{
		Question: question,
		Options:  options,
		Cursor:   cursor,
		Chosen:   chosen,
	}
}

// Update handles cursor movement and selection. Choosing an option emits a
// ChosenMsg; number keys choose directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Locked {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		return m.choose(m.Cursor)
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
			return m.choose(n - 1)
		}
	}

	return m, nil
}

func (m MultiChoice) choose(i int) (MultiChoice, tea.Cmd) {
	if i < 0 || i >= len(m.Options) {
		return m, nil
	}
	m.Cursor = i
	m.Chosen = i
	return m, func() tea.Msg { return ChosenMsg{Index: i} }
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	s := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Locked {
			prefix = "▸ "
		}
		mark := "( )"
		if i == m.Chosen {
			mark = "(•)"
		}

		line := fmt.Sprintf("%s%d. %s %s", prefix, i+1, mark, opt)

		switch {
		case i == m.Cursor && !m.Locked:
			s += theme.Selected.Render(line) + "\n"
		case i == m.Chosen:
			s += theme.Answered.Render(line) + "\n"
		case m.Locked:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		default:
			s += theme.Unselected.Render(line) + "\n"
		}
	}

	return s
}
