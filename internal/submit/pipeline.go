package submit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/store"
)

// Record is one attempt ready for submission.
type Record struct {
	// AttemptID correlates log lines and events of one submission.
	AttemptID    string
	AssessmentID string
	GroupID      string
	Answers      []assessment.Answer
	// TimeSpent is in whole seconds.
	TimeSpent int
	Timestamp time.Time
}

// FormatAnswers canonicalizes answers for the wire: ids are trimmed,
// entries without a selection are dropped, and each question appears once
// (the last selection wins) in the order it was first seen.
func FormatAnswers(answers []assessment.Answer) []assessment.Answer {
	out := make([]assessment.Answer, 0, len(answers))
	index := make(map[string]int, len(answers))
	for _, a := range answers {
		q := strings.TrimSpace(a.QuestionID)
		o := strings.TrimSpace(a.OptionID)
		if q == "" || o == "" {
			continue
		}
		if i, ok := index[q]; ok {
			out[i].OptionID = o
			continue
		}
		index[q] = len(out)
		out = append(out, assessment.Answer{QuestionID: q, OptionID: o})
	}
	return out
}

// Pipeline submits attempts through an ordered list of transports,
// guarding each submission with a local backup.
type Pipeline struct {
	backups    store.BackupRepo
	strategies []Transport
}

// NewPipeline creates a Pipeline. backups may be nil, in which case no
// local copy is kept. Strategies are tried in order until one succeeds.
func NewPipeline(backups store.BackupRepo, strategies ...Transport) *Pipeline {
	return &Pipeline{backups: backups, strategies: strategies}
}

// Strategies builds the default transport chain for c: the primary endpoint
// under cfg, then the legacy endpoint with fallbackAttempts attempts. When
// events is non-nil every call is recorded.
func Strategies(c Client, cfg RetryConfig, fallbackAttempts int, events store.EventRepo) []Transport {
	wrap := func(t Transport) Transport {
		if events != nil {
			return WithEvents(t, events)
		}
		return t
	}

	fallback := cfg
	fallback.MaxAttempts = fallbackAttempts

	out := []Transport{WithRetry(wrap(Primary(c)), cfg)}
	if fallbackAttempts > 0 {
		out = append(out, WithRetry(wrap(Legacy(c)), fallback))
	}
	return out
}

// Submit formats rec, stores a backup, and tries each strategy in turn.
// On success the backup is removed. On failure it is kept and a
// *SubmitError is returned.
func (p *Pipeline) Submit(ctx context.Context, rec Record) (*assessment.Result, error) {
	rec.Answers = FormatAnswers(rec.Answers)
	if rec.AttemptID == "" {
		rec.AttemptID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	logger := log.With().
		Str("attempt_id", rec.AttemptID).
		Str("assessment_id", rec.AssessmentID).
		Logger()

	saved := p.saveBackup(ctx, &rec)

	if len(p.strategies) == 0 {
		return nil, &SubmitError{AssessmentID: rec.AssessmentID, BackupSaved: saved, Err: errors.New("no transports configured")}
	}

	var lastErr error
	for _, t := range p.strategies {
		res, err := t.Submit(ctx, &rec)
		if err == nil {
			logger.Info().
				Str("transport", t.Name()).
				Int("score", res.Score).
				Int("total_points", res.TotalPoints).
				Msg("assessment submitted")
			p.clearBackup(ctx, rec.AssessmentID)
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("submission aborted")
			return nil, &SubmitError{AssessmentID: rec.AssessmentID, BackupSaved: saved, Err: ctx.Err()}
		}
		logger.Warn().Str("transport", t.Name()).Err(err).Msg("transport failed")
	}

	logger.Error().Err(lastErr).Bool("backup_saved", saved).Msg("submission failed")
	return nil, &SubmitError{AssessmentID: rec.AssessmentID, BackupSaved: saved, Err: lastErr}
}

// Resubmit retries a submission from its local backup.
func (p *Pipeline) Resubmit(ctx context.Context, assessmentID string) (*assessment.Result, error) {
	if p.backups == nil {
		return nil, ErrNoBackup
	}
	b, err := p.backups.Load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNoBackup
	}
	return p.Submit(ctx, Record{
		AssessmentID: b.AssessmentID,
		GroupID:      b.GroupID,
		Answers:      b.Answers,
		TimeSpent:    b.TimeSpent,
		Timestamp:    b.Timestamp,
	})
}

// saveBackup writes the local copy. A failure is logged and not fatal:
// the network attempt still goes ahead.
func (p *Pipeline) saveBackup(ctx context.Context, rec *Record) bool {
	if p.backups == nil {
		return false
	}
	err := p.backups.Save(ctx, &store.Backup{
		AssessmentID: rec.AssessmentID,
		GroupID:      rec.GroupID,
		Answers:      rec.Answers,
		TimeSpent:    rec.TimeSpent,
		Timestamp:    rec.Timestamp,
	})
	if err != nil {
		log.Warn().Err(err).Str("assessment_id", rec.AssessmentID).Msg("failed to write local backup")
		return false
	}
	return true
}

func (p *Pipeline) clearBackup(ctx context.Context, assessmentID string) {
	if p.backups == nil {
		return
	}
	if err := p.backups.Delete(ctx, assessmentID); err != nil {
		log.Warn().Err(err).Str("assessment_id", assessmentID).Msg("failed to clear local backup")
	}
}
