package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/store"
	"github.com/sabaqlab/sabaq/internal/ui/components"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

const (
	itemTake = iota
	itemPending
	itemQuit
)

type pendingCountMsg struct {
	Count int
}

// HomeScreen is the entry menu shown when no assessment was named on the
// command line.
type HomeScreen struct {
	menu    components.Menu
	backups store.BackupRepo
	pending int
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a HomeScreen. startScreen and pendingScreen build the screens
// behind the two menu entries.
func New(backups store.BackupRepo, startScreen, pendingScreen func() screen.Screen) *HomeScreen {
	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			next := build()
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}

	items := []components.MenuItem{
		itemTake:    {Label: "Take a test", Action: push(startScreen)},
		itemPending: {Label: "Pending submissions", Action: push(pendingScreen), Disabled: backups == nil},
		itemQuit:    {Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	}

	return &HomeScreen{
		menu:    components.NewMenu(items),
		backups: backups,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.countPending()
}

// countPending refreshes the pending badge; it runs again whenever the
// screen regains focus via a key press.
func (h *HomeScreen) countPending() tea.Cmd {
	if h.backups == nil {
		return nil
	}
	repo := h.backups
	return func() tea.Msg {
		items, err := repo.List(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("failed to list pending submissions")
			return pendingCountMsg{}
		}
		return pendingCountMsg{Count: len(items)}
	}
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case pendingCountMsg:
		h.pending = msg.Count
		if msg.Count > 0 {
			h.menu.Items[itemPending].Detail = fmt.Sprintf("(%d waiting)", msg.Count)
		} else {
			h.menu.Items[itemPending].Detail = ""
		}
		return h, nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		h.menu, cmd = h.menu.Update(msg)
		return h, tea.Batch(cmd, h.countPending())
	}
	return h, nil
}

func (h *HomeScreen) View(width, height int) string {
	parts := []string{
		theme.Title.Render("sabaq"),
		theme.Subtitle.Render("timed assessments in your terminal"),
		"",
		h.menu.View(),
	}
	if h.pending > 0 {
		parts = append(parts, theme.Warning.Render(
			fmt.Sprintf("%d attempt(s) were saved but never submitted.", h.pending)))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(parts, "\n"))
}
