package pending

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/screens/result"
	"github.com/sabaqlab/sabaq/internal/store"
	"github.com/sabaqlab/sabaq/internal/submit"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// Resubmitter sends a stored backup again. *submit.Pipeline satisfies it.
type Resubmitter interface {
	Resubmit(ctx context.Context, assessmentID string) (*assessment.Result, error)
}

type listedMsg struct {
	Backups []*store.Backup
	Err     error
}

type resubmittedMsg struct {
	Backup *store.Backup
	Result *assessment.Result
	Err    error
}

// PendingScreen lists attempts whose submission never completed and lets
// the user send them again.
type PendingScreen struct {
	backups     store.BackupRepo
	resubmitter Resubmitter
	reviews     result.ReviewFunc

	items   []*store.Backup
	cursor  int
	loading bool
	sending bool
	errMsg  string
}

var _ screen.Screen = (*PendingScreen)(nil)
var _ screen.KeyHintProvider = (*PendingScreen)(nil)

// New creates a PendingScreen. reviews may be nil.
func New(backups store.BackupRepo, resubmitter Resubmitter, reviews result.ReviewFunc) *PendingScreen {
	return &PendingScreen{
		backups:     backups,
		resubmitter: resubmitter,
		reviews:     reviews,
		loading:     true,
	}
}

func (s *PendingScreen) Init() tea.Cmd {
	repo := s.backups
	return func() tea.Msg {
		items, err := repo.List(context.Background())
		return listedMsg{Backups: items, Err: err}
	}
}

func (s *PendingScreen) Title() string {
	return "Pending submissions"
}

func (s *PendingScreen) KeyHints() []layout.KeyHint {
	if len(s.items) == 0 {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Submit again"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PendingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.items = msg.Backups
		s.cursor = min(s.cursor, max(0, len(s.items)-1))
		return s, nil

	case resubmittedMsg:
		s.sending = false
		if msg.Err != nil {
			s.errMsg = errorText(msg.Err)
			return s, nil
		}
		a := &assessment.Assessment{ID: msg.Backup.AssessmentID, GroupID: msg.Backup.GroupID}
		next := result.New(msg.Result, a, s.reviews)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case tea.KeyMsg:
		if s.sending {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.items)-1 {
				s.cursor++
			}
		case "enter":
			return s, s.resubmit()
		}
	}
	return s, nil
}

func (s *PendingScreen) resubmit() tea.Cmd {
	if s.cursor >= len(s.items) {
		return nil
	}
	b := s.items[s.cursor]
	s.sending = true
	s.errMsg = ""
	r := s.resubmitter
	return func() tea.Msg {
		res, err := r.Resubmit(context.Background(), b.AssessmentID)
		return resubmittedMsg{Backup: b, Result: res, Err: err}
	}
}

func errorText(err error) string {
	var se *submit.SubmitError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	return err.Error()
}

func (s *PendingScreen) View(width, height int) string {
	var b strings.Builder
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	b.WriteString("\n")
	switch {
	case s.loading:
		b.WriteString(center.Foreground(theme.TextDim).Render("Loading saved attempts..."))
		return b.String()
	case s.sending:
		b.WriteString(center.Foreground(theme.TextDim).Render("Submitting..."))
		return b.String()
	case len(s.items) == 0 && s.errMsg == "":
		b.WriteString(center.Foreground(theme.TextDim).Render("Nothing waiting to be submitted."))
		return b.String()
	}

	for i, bk := range s.items {
		line := fmt.Sprintf("%s  %d answers  %s", bk.AssessmentID, len(bk.Answers), formatSeconds(bk.TimeSpent))
		if !layout.IsCompactWidth(width) {
			line += "  saved " + bk.Timestamp.Local().Format("Jan 2 15:04")
		}
		if i == s.cursor {
			b.WriteString(theme.Selected.Render("  ▸ " + line))
		} else {
			b.WriteString(theme.Unselected.Render("    " + line))
		}
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(center.Foreground(theme.Error).Render(s.errMsg))
	}
	return b.String()
}

func formatSeconds(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
