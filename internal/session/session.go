package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/submit"
)

var (
	// ErrSubmitIgnored is returned when a submission trigger arrives after
	// another trigger already started a submission.
	ErrSubmitIgnored = errors.New("submission already started")

	// ErrAnswersLocked is returned when selecting after the session left
	// the running phase.
	ErrAnswersLocked = errors.New("answers can no longer be changed")

	// ErrStopped is returned by Run when the countdown was stopped before
	// it expired.
	ErrStopped = errors.New("countdown stopped")

	// ErrNoSubmitter is returned by Submit on a session built without one.
	ErrNoSubmitter = errors.New("session has no submitter")
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseRunning    Phase = iota // Accepting answers, countdown running
	PhaseSubmitting              // A submission is in flight
	PhaseSubmitted               // The service accepted the attempt
	PhaseFailed                  // Submission failed; manual retry allowed
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Trigger identifies what initiated a submission.
type Trigger int

const (
	TriggerManual Trigger = iota
	TriggerExpired
	TriggerRetry
)

func (t Trigger) String() string {
	switch t {
	case TriggerManual:
		return "manual"
	case TriggerExpired:
		return "expired"
	case TriggerRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Submitter delivers a finished attempt. *submit.Pipeline satisfies it.
type Submitter interface {
	Submit(ctx context.Context, rec submit.Record) (*assessment.Result, error)
}

// Option configures a Session.
type Option func(*Session)

// WithSubmitter sets where finished attempts are sent.
func WithSubmitter(s Submitter) Option {
	return func(sess *Session) { sess.submitter = s }
}

// WithAttemptID overrides the generated attempt id.
func WithAttemptID(id string) Option {
	return func(sess *Session) { sess.attemptID = id }
}

// Session is one timed attempt at an assessment. All methods are safe for
// concurrent use; the countdown and the user may race to submit and only
// the first trigger starts a submission.
type Session struct {
	mu         sync.Mutex
	assessment *assessment.Assessment
	answers    *AnswerTracker
	countdown  *Countdown
	phase      Phase
	closed     bool

	submitter Submitter
	attemptID string
	record    *submit.Record
	result    *assessment.Result
	err       error
}

// New starts a session for an already loaded assessment.
func New(a *assessment.Assessment, opts ...Option) (*Session, error) {
	if err := a.Validate(); err != nil {
		return nil, &LoadError{GroupID: a.GroupID, AssessmentID: a.ID, Err: err}
	}
	s := &Session{
		assessment: a,
		answers:    NewAnswerTracker(a),
		countdown:  NewCountdown(a.TimeLimitSeconds()),
		attemptID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Info().
		Str("attempt_id", s.attemptID).
		Str("assessment_id", a.ID).
		Int("questions", len(a.Questions)).
		Dur("time_limit", a.TimeLimit).
		Msg("session started")
	return s, nil
}

// Assessment returns the assessment being taken.
func (s *Session) Assessment() *assessment.Assessment { return s.assessment }

// AttemptID returns the id correlating this attempt's logs and events.
func (s *Session) AttemptID() string { return s.attemptID }

// Select records an answer. Only allowed while running.
func (s *Session) Select(questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRunning || s.closed {
		return ErrAnswersLocked
	}
	return s.answers.Select(questionID, optionID)
}

// Selection returns the selected option for a question.
func (s *Session) Selection(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Selection(questionID)
}

// Progress summarizes answer completion.
type Progress struct {
	Answered int
	Total    int
	Percent  int
	Complete bool
}

// Progress returns the current answer progress.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Answered: s.answers.AnsweredCount(),
		Total:    s.answers.Total(),
		Percent:  s.answers.ProgressPercent(),
		Complete: s.answers.IsComplete(),
	}
}

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown.Remaining()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the service's result once submitted, else nil.
func (s *Session) Result() *assessment.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Err returns the last submission error, if the session failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Tick advances the countdown one second. It returns true once, when the
// countdown expires; the caller must then Submit with TriggerExpired.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != PhaseRunning {
		return false
	}
	return s.countdown.Tick()
}

// Run drives the countdown from ticks until it expires, then submits. It
// returns ErrStopped if the countdown was stopped first by a manual
// submission or Close.
func (s *Session) Run(ctx context.Context, ticks <-chan time.Time) (*assessment.Result, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticks:
			if s.Tick() {
				return s.Submit(ctx, TriggerExpired)
			}
			if s.stopped() {
				return nil, ErrStopped
			}
		}
	}
}

func (s *Session) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.countdown.State() != CountdownRunning
}

// Close tears the session down. The countdown stops and no later trigger
// starts a submission. A submission already in flight is not interrupted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.countdown.Stop()
	log.Debug().Str("attempt_id", s.attemptID).Msg("session closed")
}

// begin is the single transition guard for starting a submission. The
// first manual or expiry trigger moves Running to Submitting; a failed
// session moves back to Submitting only on a manual trigger. Everything
// else is ignored.
func (s *Session) begin(trigger Trigger) (submit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return submit.Record{}, ErrSubmitIgnored
	}

	switch {
	case s.phase == PhaseRunning && (trigger == TriggerManual || trigger == TriggerExpired):
		s.countdown.Stop()
		rec := submit.Record{
			AttemptID:    s.attemptID,
			AssessmentID: s.assessment.ID,
			GroupID:      s.assessment.GroupID,
			Answers:      s.answers.Answers(),
			TimeSpent:    s.countdown.Elapsed(),
			Timestamp:    time.Now(),
		}
		s.record = &rec
	case s.phase == PhaseFailed && (trigger == TriggerManual || trigger == TriggerRetry):
		// Reuse the frozen answers and time of the first attempt.
	default:
		return submit.Record{}, ErrSubmitIgnored
	}

	s.phase = PhaseSubmitting
	s.err = nil
	return *s.record, nil
}

// Submit sends the attempt. Only the first trigger proceeds; concurrent or
// later ones return ErrSubmitIgnored without any network call.
func (s *Session) Submit(ctx context.Context, trigger Trigger) (*assessment.Result, error) {
	if s.submitter == nil {
		return nil, ErrNoSubmitter
	}
	rec, err := s.begin(trigger)
	if err != nil {
		log.Debug().Str("attempt_id", s.attemptID).Stringer("trigger", trigger).Msg("submit trigger ignored")
		return nil, err
	}

	log.Info().
		Str("attempt_id", rec.AttemptID).
		Stringer("trigger", trigger).
		Int("answered", len(rec.Answers)).
		Int("time_spent", rec.TimeSpent).
		Msg("submitting assessment")

	res, err := s.submitter.Submit(ctx, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseFailed
		s.err = err
		return nil, err
	}
	s.phase = PhaseSubmitted
	s.result = res
	return res, nil
}
