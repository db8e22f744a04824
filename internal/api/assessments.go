package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// GetAssessment fetches an assessment definition for an attempt.
func (c *Client) GetAssessment(ctx context.Context, groupID, assessmentID string) (*assessment.Assessment, error) {
	var dto assessmentDTO
	path := fmt.Sprintf("/groups/%s/tests/%s", url.PathEscape(groupID), url.PathEscape(assessmentID))
	if err := c.Request(ctx, http.MethodGet, path, nil, &dto); err != nil {
		return nil, err
	}
	a, err := dto.toDomain(groupID)
	if err != nil {
		return nil, fmt.Errorf("assessment %s: %w", assessmentID, err)
	}
	return a, nil
}

// SubmitAnswers posts an attempt through the group-scoped endpoint.
func (c *Client) SubmitAnswers(ctx context.Context, groupID, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error) {
	path := fmt.Sprintf("/groups/%s/tests/%s/submit", url.PathEscape(groupID), url.PathEscape(assessmentID))
	return c.submit(ctx, path, answers, timeSpent)
}

// SubmitLegacy posts an attempt through the older, group-less endpoint.
func (c *Client) SubmitLegacy(ctx context.Context, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error) {
	path := fmt.Sprintf("/tests/%s/submit", url.PathEscape(assessmentID))
	return c.submit(ctx, path, answers, timeSpent)
}

func (c *Client) submit(ctx context.Context, path string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error) {
	if answers == nil {
		answers = []assessment.Answer{}
	}
	var env resultEnvelope
	body := submitRequest{Answers: answers, TimeSpent: timeSpent}
	if err := c.Request(ctx, http.MethodPost, path, body, &env); err != nil {
		return nil, err
	}
	return env.result().toResult(), nil
}

// GetResults fetches the graded review of a user's attempt.
func (c *Client) GetResults(ctx context.Context, groupID, assessmentID, userID string) (*assessment.Review, error) {
	var env resultEnvelope
	path := fmt.Sprintf("/groups/%s/tests/%s/results/%s",
		url.PathEscape(groupID), url.PathEscape(assessmentID), url.PathEscape(userID))
	if err := c.Request(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.result().toReview(assessmentID), nil
}
