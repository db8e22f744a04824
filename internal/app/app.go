package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/screens/home"
	"github.com/sabaqlab/sabaq/internal/screens/pending"
	"github.com/sabaqlab/sabaq/internal/screens/result"
	"github.com/sabaqlab/sabaq/internal/screens/start"
	"github.com/sabaqlab/sabaq/internal/screens/take"
	"github.com/sabaqlab/sabaq/internal/session"
	"github.com/sabaqlab/sabaq/internal/store"
	"github.com/sabaqlab/sabaq/internal/submit"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
)

// Options holds the services the screens are built from.
type Options struct {
	Fetcher  session.Fetcher
	Pipeline *submit.Pipeline
	Backups  store.BackupRepo
	Reviews  result.ReviewFunc

	// GroupID and AssessmentID open the take screen directly when both
	// are set.
	GroupID      string
	AssessmentID string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	initCmds []tea.Cmd
	width    int
	height   int
}

// newAppModel builds the screen stack: home at the bottom, with the take
// screen pushed on top when an assessment was named.
func newAppModel(opts Options) AppModel {
	openTake := func(groupID, assessmentID string) screen.Screen {
		return take.New(opts.Fetcher, opts.Pipeline, opts.Reviews, groupID, assessmentID)
	}
	homeScreen := home.New(opts.Backups,
		func() screen.Screen { return start.New(openTake, opts.GroupID, opts.AssessmentID) },
		func() screen.Screen { return pending.New(opts.Backups, opts.Pipeline, opts.Reviews) },
	)

	r := router.New(homeScreen)
	cmds := []tea.Cmd{homeScreen.Init()}
	if opts.GroupID != "" && opts.AssessmentID != "" {
		cmds = append(cmds, r.Push(openTake(opts.GroupID, opts.AssessmentID)))
	}
	return AppModel{router: r, initCmds: cmds}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.initCmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var title, status string
	var footerHints []layout.KeyHint
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
		if kp, ok := active.(screen.KeyHintProvider); ok {
			footerHints = kp.KeyHints()
		}
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(footerHints, m.width)

	content := m.router.View(m.width, layout.ContentHeight(m.height, header, footer))
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and disposes every screen on exit so
// no countdown outlives the terminal.
func Run(opts Options) error {
	model := newAppModel(opts)
	defer model.router.Close()

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
