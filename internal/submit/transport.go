package submit

import (
	"context"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// Transport delivers a formatted attempt to the Assessment Service.
type Transport interface {
	Submit(ctx context.Context, rec *Record) (*assessment.Result, error)

	// Name identifies the transport in logs and the event log.
	Name() string
}

// Client is the subset of the service client the default transports need.
// *api.Client satisfies it.
type Client interface {
	SubmitAnswers(ctx context.Context, groupID, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error)
	SubmitLegacy(ctx context.Context, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error)
}

type primaryTransport struct{ c Client }

// Primary submits through the group-scoped endpoint.
func Primary(c Client) Transport { return primaryTransport{c: c} }

func (t primaryTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	return t.c.SubmitAnswers(ctx, rec.GroupID, rec.AssessmentID, rec.Answers, rec.TimeSpent)
}

func (primaryTransport) Name() string { return "primary" }

type legacyTransport struct{ c Client }

// Legacy submits through the older group-less endpoint.
func Legacy(c Client) Transport { return legacyTransport{c: c} }

func (t legacyTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	return t.c.SubmitLegacy(ctx, rec.AssessmentID, rec.Answers, rec.TimeSpent)
}

func (legacyTransport) Name() string { return "legacy" }
