package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// MenuItem represents a single item in a navigation menu.
type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical navigation menu.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a new menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	m.Selected = m.next(-1, 1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// next finds the nearest enabled item from i in direction dir, or -1.
func (m Menu) next(i, dir int) int {
	for j := i + dir; j >= 0 && j < len(m.Items); j += dir {
		if !m.Items[j].Disabled {
			return j
		}
	}
	return -1
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if j := m.next(m.Selected, -1); j >= 0 {
			m.Selected = j
		}
	case "down", "j":
		if j := m.next(m.Selected, 1); j >= 0 {
			m.Selected = j
		}
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}

	return m, nil
}

// View renders the menu.
func (m Menu) View() string {
	var s string
	for i, item := range m.Items {
		var line string
		switch {
		case i == m.Selected:
			line = theme.Selected.Render("  ▸ " + item.Label)
		case item.Disabled:
			line = lipgloss.NewStyle().Foreground(theme.TextDim).Render("    " + item.Label)
		default:
			line = theme.Unselected.Render("    " + item.Label)
		}
		if item.Detail != "" {
			line += "  " + theme.Hint.Render(item.Detail)
		}
		s += line + "\n"
	}
	return s
}
