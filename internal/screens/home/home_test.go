package home

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/store"
)

type stub struct{ title string }

func (*stub) Init() tea.Cmd                           { return nil }
func (s *stub) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (*stub) View(int, int) string                    { return "" }
func (s *stub) Title() string                         { return s.title }

func newHome(backups store.BackupRepo) *HomeScreen {
	return New(backups,
		func() screen.Screen { return &stub{title: "start"} },
		func() screen.Screen { return &stub{title: "pending"} })
}

func TestHomeScreen_TakePushesStart(t *testing.T) {
	h := newHome(nil)
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)

	// Batch of the menu action and a nil refresh collapses to the action.
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok, "expected PushScreenMsg")
	assert.Equal(t, "start", msg.Screen.Title())
}

func TestHomeScreen_PendingDisabledWithoutStore(t *testing.T) {
	h := newHome(nil)
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, itemQuit, h.menu.Selected, "disabled entry should be skipped")
}

func TestHomeScreen_PendingCount(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.BackupRepo().Save(context.Background(), &store.Backup{
		AssessmentID: "t1",
		Timestamp:    time.Now(),
	}))

	h := newHome(st.BackupRepo())
	h.Update(h.Init()())

	assert.Equal(t, 1, h.pending)
	assert.Contains(t, h.View(100, 30), "(1 waiting)")
}
