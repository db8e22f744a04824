package take

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/screens/result"
	"github.com/sabaqlab/sabaq/internal/session"
	"github.com/sabaqlab/sabaq/internal/ui/components"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
)

// TakeScreen runs one timed attempt: it loads the assessment, shows one
// question at a time and submits on demand or when time runs out.
type TakeScreen struct {
	fetcher      session.Fetcher
	submitter    session.Submitter
	reviews      result.ReviewFunc
	groupID      string
	assessmentID string

	ctx    context.Context
	cancel context.CancelFunc

	sess          *session.Session
	current       int
	choice        components.MultiChoice
	confirmSubmit bool
	confirmQuit   bool
	submitting    bool
	submitErr     error
	errMsg        string
	disposed      bool
}

var _ screen.Screen = (*TakeScreen)(nil)
var _ screen.KeyHintProvider = (*TakeScreen)(nil)
var _ screen.StatusProvider = (*TakeScreen)(nil)
var _ screen.Disposer = (*TakeScreen)(nil)

// New creates a TakeScreen for the given assessment. reviews may be nil.
func New(fetcher session.Fetcher, submitter session.Submitter, reviews result.ReviewFunc, groupID, assessmentID string) *TakeScreen {
	ctx, cancel := context.WithCancel(context.Background())
	return &TakeScreen{
		fetcher:      fetcher,
		submitter:    submitter,
		reviews:      reviews,
		groupID:      groupID,
		assessmentID: assessmentID,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (s *TakeScreen) Init() tea.Cmd {
	return s.load()
}

func (s *TakeScreen) Title() string {
	if s.sess != nil && s.sess.Assessment().Title != "" {
		return s.sess.Assessment().Title
	}
	return "Assessment"
}

// Status shows the remaining time while the countdown is live.
func (s *TakeScreen) Status() string {
	if s.sess == nil || s.sess.Phase() != session.PhaseRunning {
		return ""
	}
	return "⏱ " + layout.FormatClock(s.sess.Remaining())
}

func (s *TakeScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.sess == nil:
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	case s.submitting:
		return nil
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave"},
			{Key: "N", Description: "Stay"},
		}
	case s.confirmSubmit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Submit"},
			{Key: "N", Description: "Keep working"},
		}
	case s.sess.Phase() == session.PhaseFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Try again"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "1-9/Enter", Description: "Choose"},
		{Key: "←→", Description: "Question"},
		{Key: "S", Description: "Submit"},
		{Key: "Esc", Description: "Quit"},
	}
}

// Dispose stops the countdown and abandons a pending load. A submission
// already in flight runs to completion so its backup is settled.
func (s *TakeScreen) Dispose() {
	s.disposed = true
	s.cancel()
	if s.sess != nil {
		s.sess.Close()
	}
}

func (s *TakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)

	case timerTickMsg:
		return s.handleTick()

	case submittedMsg:
		return s.handleSubmitted(msg)

	case components.ChosenMsg:
		s.handleChosen(msg)
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *TakeScreen) load() tea.Cmd {
	ctx, fetcher, submitter := s.ctx, s.fetcher, s.submitter
	groupID, id := s.groupID, s.assessmentID
	return func() tea.Msg {
		sess, err := session.Load(ctx, fetcher, groupID, id, session.WithSubmitter(submitter))
		return loadedMsg{Session: sess, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func (s *TakeScreen) submitCmd(trigger session.Trigger) tea.Cmd {
	s.submitting = true
	s.confirmSubmit = false
	s.confirmQuit = false
	sess := s.sess
	return func() tea.Msg {
		res, err := sess.Submit(context.Background(), trigger)
		return submittedMsg{Trigger: trigger, Result: res, Err: err}
	}
}

func (s *TakeScreen) handleLoaded(msg loadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if s.disposed {
		msg.Session.Close()
		return s, nil
	}
	s.sess = msg.Session
	s.showQuestion(0)
	return s, tickCmd()
}

func (s *TakeScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.sess == nil || s.disposed {
		return s, nil
	}
	if s.sess.Tick() {
		log.Info().Str("attempt_id", s.sess.AttemptID()).Msg("time is up, submitting")
		s.choice.Locked = true
		return s, s.submitCmd(session.TriggerExpired)
	}
	if s.sess.Phase() != session.PhaseRunning {
		return s, nil
	}
	return s, tickCmd()
}

func (s *TakeScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.Err, session.ErrSubmitIgnored) {
		// Another trigger owns the submission; its message follows.
		return s, nil
	}
	s.submitting = false
	if msg.Err != nil {
		s.submitErr = msg.Err
		s.choice.Locked = true
		return s, nil
	}
	s.submitErr = nil
	next := result.New(msg.Result, s.sess.Assessment(), s.reviews)
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *TakeScreen) handleChosen(msg components.ChosenMsg) {
	if s.sess == nil {
		return
	}
	q := s.sess.Assessment().Questions[s.current]
	if msg.Index < 0 || msg.Index >= len(q.Options) {
		return
	}
	if err := s.sess.Select(q.ID, q.Options[msg.Index].ID); err != nil {
		log.Debug().Err(err).Str("question_id", q.ID).Msg("selection rejected")
		s.showQuestion(s.current)
	}
}

// showQuestion rebuilds the choice component for question i, restoring any
// earlier selection.
func (s *TakeScreen) showQuestion(i int) {
	qs := s.sess.Assessment().Questions
	i = max(0, min(i, len(qs)-1))
	s.current = i
	q := qs[i]

	labels := make([]string, len(q.Options))
	chosen := -1
	sel, _ := s.sess.Selection(q.ID)
	for j, o := range q.Options {
		labels[j] = o.Text
		if o.ID == sel {
			chosen = j
		}
	}
	s.choice = components.NewMultiChoice(q.Text, labels, chosen)
	s.choice.Locked = s.sess.Phase() != session.PhaseRunning
}

func (s *TakeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.sess == nil {
		if key == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}
	if s.submitting {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.confirmSubmit {
		switch key {
		case "y", "Y", "enter":
			return s, s.submitCmd(session.TriggerManual)
		case "n", "N", "esc":
			s.confirmSubmit = false
		}
		return s, nil
	}

	switch s.sess.Phase() {
	case session.PhaseFailed:
		switch key {
		case "r", "R":
			return s, s.submitCmd(session.TriggerRetry)
		case "esc":
			s.confirmQuit = true
		case "left", "h", "p":
			s.showQuestion(s.current - 1)
		case "right", "l", "n":
			s.showQuestion(s.current + 1)
		}
		return s, nil

	case session.PhaseRunning:
		switch key {
		case "esc":
			s.confirmQuit = true
			return s, nil
		case "s", "S":
			s.confirmSubmit = true
			return s, nil
		case "left", "h", "p", "shift+tab":
			s.showQuestion(s.current - 1)
			return s, nil
		case "right", "l", "n", "tab":
			s.showQuestion(s.current + 1)
			return s, nil
		}
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		return s, cmd
	}

	return s, nil
}
