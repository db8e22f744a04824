package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// Fetcher retrieves an assessment definition. *api.Client satisfies it.
type Fetcher interface {
	GetAssessment(ctx context.Context, groupID, assessmentID string) (*assessment.Assessment, error)
}

// LoadError reports that an assessment could not be loaded. It is fatal to
// the session and is not retried.
type LoadError struct {
	GroupID      string
	AssessmentID string
	Err          error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load assessment %s: %v", e.AssessmentID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load fetches an assessment and starts a session for it. The countdown
// starts only once the assessment is available.
func Load(ctx context.Context, f Fetcher, groupID, assessmentID string, opts ...Option) (*Session, error) {
	a, err := f.GetAssessment(ctx, groupID, assessmentID)
	if err != nil {
		log.Error().Err(err).
			Str("group_id", groupID).
			Str("assessment_id", assessmentID).
			Msg("failed to load assessment")
		return nil, &LoadError{GroupID: groupID, AssessmentID: assessmentID, Err: err}
	}
	if a.GroupID == "" {
		a.GroupID = groupID
	}
	return New(a, opts...)
}
