package submit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/store"
)

// EventTransport is a decorator that records every call as an event.
type EventTransport struct {
	inner     Transport
	eventRepo store.EventRepo
}

// WithEvents wraps a Transport with event recording.
func WithEvents(t Transport, repo store.EventRepo) Transport {
	return &EventTransport{inner: t, eventRepo: repo}
}

func (e *EventTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	start := time.Now()
	res, err := e.inner.Submit(ctx, rec)

	data := store.SubmitAttemptData{
		AttemptID:    rec.AttemptID,
		AssessmentID: rec.AssessmentID,
		Transport:    e.inner.Name(),
		Success:      err == nil,
		StatusCode:   api.StatusCode(err),
		Latency:      time.Since(start),
		Timestamp:    start,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Record the event but don't fail the submission if recording fails.
	// A canceled ctx would reject the write, so the event outlives it.
	if logErr := e.eventRepo.AppendSubmitAttempt(context.WithoutCancel(ctx), data); logErr != nil && !errors.Is(logErr, context.Canceled) {
		log.Warn().Err(logErr).Msg("failed to record submit attempt")
	}

	return res, err
}

func (e *EventTransport) Name() string {
	return e.inner.Name()
}
