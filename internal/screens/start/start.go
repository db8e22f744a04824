package start

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/ui/components"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// OpenFunc builds the screen that takes the chosen assessment.
type OpenFunc func(groupID, assessmentID string) screen.Screen

// StartScreen asks for the group and assessment to take.
type StartScreen struct {
	open   OpenFunc
	fields []components.Field
	focus  int
	errMsg string
}

var _ screen.Screen = (*StartScreen)(nil)
var _ screen.KeyHintProvider = (*StartScreen)(nil)

// New creates a StartScreen prefilled with any ids already known.
func New(open OpenFunc, groupID, assessmentID string) *StartScreen {
	s := &StartScreen{
		open: open,
		fields: []components.Field{
			components.NewField("Group ID", "e.g. 64f1c0...", groupID, 64),
			components.NewField("Assessment ID", "e.g. 650a9d...", assessmentID, 64),
		},
	}
	if groupID != "" && assessmentID == "" {
		s.focus = 1
	}
	return s
}

func (s *StartScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *StartScreen) Title() string {
	return "Start a test"
}

func (s *StartScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *StartScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "down":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab", "up":
			return s, s.setFocus(s.focus - 1)
		case "enter":
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *StartScreen) setFocus(i int) tea.Cmd {
	n := len(s.fields)
	i = (i%n + n) % n
	s.fields[s.focus].Blur()
	s.focus = i
	return s.fields[i].Focus()
}

// submit opens the take screen once both ids are present; otherwise it
// moves focus to the first empty field.
func (s *StartScreen) submit() tea.Cmd {
	for i, f := range s.fields {
		if f.Value() == "" {
			s.errMsg = f.Label + " is required"
			return s.setFocus(i)
		}
	}
	s.errMsg = ""
	next := s.open(s.fields[0].Value(), s.fields[1].Value())
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *StartScreen) View(width, height int) string {
	formWidth := min(width-8, 50)
	parts := []string{
		theme.Title.Width(formWidth).Render("Which test are you taking?"),
		"",
	}
	for _, f := range s.fields {
		parts = append(parts, f.View(formWidth-4), "")
	}
	if s.errMsg != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	} else {
		parts = append(parts, theme.Hint.Render("The countdown starts as soon as the test loads."))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(parts, "\n"))
}
