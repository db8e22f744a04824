package take

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/screens/result"
	"github.com/sabaqlab/sabaq/internal/session"
	"github.com/sabaqlab/sabaq/internal/submit"
	"github.com/sabaqlab/sabaq/internal/ui/components"
)

type fakeFetcher struct {
	a   *assessment.Assessment
	err error
}

func (f *fakeFetcher) GetAssessment(context.Context, string, string) (*assessment.Assessment, error) {
	return f.a, f.err
}

// fakeSubmitter returns queued errors first, then a fixed result.
type fakeSubmitter struct {
	mu      sync.Mutex
	errs    []error
	records []submit.Record
}

func (f *fakeSubmitter) Submit(_ context.Context, rec submit.Record) (*assessment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &assessment.Result{Score: 1, TotalPoints: 2, TimeSpent: rec.TimeSpent}, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testAssessment(limit time.Duration) *assessment.Assessment {
	return &assessment.Assessment{
		ID:        "t1",
		GroupID:   "g1",
		Title:     "Fractions",
		TimeLimit: limit,
		Questions: []assessment.Question{
			{ID: "q1", Text: "Half of 4?", Points: 1, Options: []assessment.Option{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}}},
			{ID: "q2", Text: "Half of 8?", Points: 1, Options: []assessment.Option{{ID: "c", Text: "4"}, {ID: "d", Text: "6"}}},
		},
	}
}

// loadedScreen returns a screen whose load command has already run.
func loadedScreen(t *testing.T, limit time.Duration, sub *fakeSubmitter) *TakeScreen {
	t.Helper()
	s := New(&fakeFetcher{a: testAssessment(limit)}, sub, nil, "g1", "t1")
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected a load command from Init")
	}
	if _, tick := s.Update(cmd()); tick == nil {
		t.Fatal("expected the countdown to start after load")
	}
	if s.sess == nil {
		t.Fatal("session not started")
	}
	return s
}

// press sends a key and feeds any resulting message back into the screen,
// returning the final command.
func press(s *TakeScreen, msg tea.Msg) tea.Cmd {
	_, cmd := s.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	if _, ok := out.(components.ChosenMsg); ok {
		_, cmd = s.Update(out)
		return cmd
	}
	if sm, ok := out.(submittedMsg); ok {
		_, cmd = s.Update(sm)
		return cmd
	}
	return cmd
}

func TestTakeScreen_Title(t *testing.T) {
	s := New(&fakeFetcher{}, &fakeSubmitter{}, nil, "g1", "t1")
	if s.Title() != "Assessment" {
		t.Errorf("Title = %q, want %q", s.Title(), "Assessment")
	}

	s = loadedScreen(t, time.Minute, &fakeSubmitter{})
	if s.Title() != "Fractions" {
		t.Errorf("Title = %q, want %q", s.Title(), "Fractions")
	}
}

func TestTakeScreen_View_Loading(t *testing.T) {
	s := New(&fakeFetcher{}, &fakeSubmitter{}, nil, "g1", "t1")
	if !strings.Contains(s.View(80, 24), "Loading") {
		t.Error("expected loading view")
	}
}

func TestTakeScreen_LoadError(t *testing.T) {
	s := New(&fakeFetcher{err: &api.StatusError{Op: "get assessment", Code: 404, Message: "Test not found"}},
		&fakeSubmitter{}, nil, "g1", "t1")
	s.Update(s.Init()())

	if s.sess != nil {
		t.Fatal("expected no session after a load error")
	}
	if !strings.Contains(s.View(200, 24), "Test not found") {
		t.Error("expected the service message in the error view")
	}

	_, cmd := s.Update(keyPress('x'))
	if cmd == nil {
		t.Fatal("expected a command after any key")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestTakeScreen_SelectByNumber(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})

	press(s, keyPress('2'))

	if sel, _ := s.sess.Selection("q1"); sel != "b" {
		t.Errorf("selection = %q, want b", sel)
	}
	if p := s.sess.Progress(); p.Percent != 50 {
		t.Errorf("progress = %d, want 50", p.Percent)
	}
}

func TestTakeScreen_SelectWithCursor(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})

	press(s, specialKey(tea.KeyDown))
	press(s, specialKey(tea.KeyEnter))

	if sel, _ := s.sess.Selection("q1"); sel != "b" {
		t.Errorf("selection = %q, want b", sel)
	}
}

func TestTakeScreen_NavigationKeepsSelections(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})

	press(s, keyPress('1'))
	press(s, specialKey(tea.KeyRight))
	if s.current != 1 {
		t.Fatalf("current = %d, want 1", s.current)
	}
	if !strings.Contains(s.View(100, 30), "Half of 8?") {
		t.Error("expected second question in view")
	}

	press(s, specialKey(tea.KeyRight))
	if s.current != 1 {
		t.Errorf("current = %d, want to stay on last question", s.current)
	}

	press(s, specialKey(tea.KeyLeft))
	if s.choice.Chosen != 0 {
		t.Errorf("chosen = %d, want earlier selection restored", s.choice.Chosen)
	}
}

func TestTakeScreen_ManualSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	s := loadedScreen(t, time.Minute, sub)
	press(s, keyPress('2'))

	press(s, keyPress('s'))
	if !s.confirmSubmit {
		t.Fatal("expected submit confirmation")
	}
	if !strings.Contains(s.View(80, 24), "1 of 2 questions are unanswered") {
		t.Error("expected unanswered warning in confirmation")
	}

	cmd := press(s, keyPress('y'))
	if cmd == nil {
		t.Fatal("expected navigation after successful submit")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	if _, ok := msg.Screen.(*result.ResultScreen); !ok {
		t.Errorf("expected result screen, got %T", msg.Screen)
	}

	if len(sub.records) != 1 {
		t.Fatalf("submit calls = %d, want 1", len(sub.records))
	}
	want := []assessment.Answer{{QuestionID: "q1", OptionID: "b"}}
	if got := sub.records[0].Answers; len(got) != 1 || got[0] != want[0] {
		t.Errorf("answers = %v, want %v", got, want)
	}
}

func TestTakeScreen_SubmitConfirmCancel(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})
	press(s, keyPress('s'))
	press(s, keyPress('n'))

	if s.confirmSubmit {
		t.Error("expected confirmation dismissed")
	}
	if s.sess.Phase() != session.PhaseRunning {
		t.Errorf("phase = %s, want running", s.sess.Phase())
	}
}

func TestTakeScreen_ExpirySubmits(t *testing.T) {
	sub := &fakeSubmitter{}
	s := loadedScreen(t, 2*time.Second, sub)
	press(s, keyPress('1'))

	if _, cmd := s.Update(timerTickMsg(time.Now())); cmd == nil {
		t.Fatal("expected the countdown to keep ticking")
	}
	if s.Status() != "⏱ 0:01" {
		t.Errorf("Status = %q, want ⏱ 0:01", s.Status())
	}

	_, cmd := s.Update(timerTickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected a submit command on expiry")
	}
	sm, ok := cmd().(submittedMsg)
	if !ok {
		t.Fatal("expected submittedMsg")
	}
	if sm.Trigger != session.TriggerExpired {
		t.Errorf("trigger = %s, want expired", sm.Trigger)
	}
	if len(sub.records) != 1 || sub.records[0].TimeSpent != 2 {
		t.Errorf("records = %+v, want one with TimeSpent 2", sub.records)
	}

	// Late ticks after expiry do nothing.
	if _, cmd := s.Update(timerTickMsg(time.Now())); cmd != nil {
		t.Error("expected no further ticks after expiry")
	}
}

func TestTakeScreen_LowTimeWarningFitsWidth(t *testing.T) {
	s := loadedScreen(t, 30*time.Second, &fakeSubmitter{})

	wide := s.View(120, 30)
	if !strings.Contains(wide, "submitted automatically") {
		t.Error("expected the full low-time warning on a wide terminal")
	}

	narrow := s.View(80, 18)
	if !strings.Contains(narrow, "0:30 left.") {
		t.Error("expected the remaining time on a narrow terminal")
	}
	if strings.Contains(narrow, "submitted automatically") {
		t.Error("expected the short warning on a narrow terminal")
	}
	if strings.Count(narrow, "\n") >= strings.Count(wide, "\n") {
		t.Error("expected fewer spacer lines on a short terminal")
	}
}

func TestTakeScreen_FailureThenRetry(t *testing.T) {
	failure := &submit.SubmitError{AssessmentID: "t1", BackupSaved: true, Err: errors.New("503")}
	sub := &fakeSubmitter{errs: []error{failure}}
	s := loadedScreen(t, time.Minute, sub)
	press(s, keyPress('1'))

	press(s, keyPress('s'))
	if cmd := press(s, keyPress('y')); cmd != nil {
		t.Fatal("expected no navigation after a failed submit")
	}
	if s.sess.Phase() != session.PhaseFailed {
		t.Fatalf("phase = %s, want failed", s.sess.Phase())
	}
	if !strings.Contains(s.View(200, 30), "saved locally") {
		t.Error("expected the backup notice in the failure view")
	}

	// Answers are frozen after the first attempt.
	press(s, keyPress('2'))
	if sel, _ := s.sess.Selection("q1"); sel != "a" {
		t.Errorf("selection = %q, want a", sel)
	}

	cmd := press(s, keyPress('r'))
	if cmd == nil {
		t.Fatal("expected navigation after a successful retry")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg")
	}
	if len(sub.records) != 2 || sub.records[1].AttemptID != sub.records[0].AttemptID {
		t.Errorf("expected retry to resend the same attempt, got %+v", sub.records)
	}
}

func TestTakeScreen_QuitConfirm(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})

	var scr screen.Screen = s
	scr.Update(specialKey(tea.KeyEscape))
	if !s.confirmQuit {
		t.Fatal("expected quit confirmation dialog")
	}
	scr.Update(keyPress('n'))
	if s.confirmQuit {
		t.Error("expected quit confirmation to be dismissed")
	}

	scr.Update(specialKey(tea.KeyEscape))
	_, cmd := scr.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a command after quit confirmation")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestTakeScreen_DisposeStopsSession(t *testing.T) {
	sub := &fakeSubmitter{}
	s := loadedScreen(t, time.Second, sub)

	r := router.New(&stubScreen{})
	r.Push(s)
	r.Pop()

	if err := s.sess.Select("q1", "a"); !errors.Is(err, session.ErrAnswersLocked) {
		t.Errorf("Select after dispose = %v, want ErrAnswersLocked", err)
	}
	if _, cmd := s.Update(timerTickMsg(time.Now())); cmd != nil {
		t.Error("expected no submit after dispose")
	}
	if len(sub.records) != 0 {
		t.Errorf("submit calls = %d, want 0", len(sub.records))
	}
}

func TestTakeScreen_KeyHints(t *testing.T) {
	s := loadedScreen(t, time.Minute, &fakeSubmitter{})
	if len(s.KeyHints()) == 0 {
		t.Error("expected non-empty key hints")
	}
}

type stubScreen struct{}

func (*stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (*stubScreen) View(int, int) string                    { return "" }
func (*stubScreen) Title() string                           { return "" }
