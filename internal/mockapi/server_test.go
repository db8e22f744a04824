package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, s *Server, user string) string {
	t.Helper()
	tok, err := s.IssueToken(user, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuth(t *testing.T) {
	s := New(testSecret, SampleTests()...)

	rec := do(t, s, http.MethodGet, "/api/groups/demo/tests/algebra-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := New("other-secret")
	rec = do(t, s, http.MethodGet, "/api/groups/demo/tests/algebra-1", token(t, other, "u1"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/groups/demo/tests/algebra-1", token(t, s, "u1"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetTest(t *testing.T) {
	s := New(testSecret, SampleTests()...)
	tok := token(t, s, "u1")

	rec := do(t, s, http.MethodGet, "/api/groups/demo/tests/history-1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "history-1", got.ID)
	assert.Equal(t, 1, got.TimeLimit)
	assert.Len(t, got.Questions, 2)

	rec = do(t, s, http.MethodGet, "/api/groups/other/tests/history-1", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitGradesAndReplaces(t *testing.T) {
	s := New(testSecret, SampleTests()...)
	tok := token(t, s, "u1")
	path := "/api/groups/demo/tests/algebra-1/submit"

	rec := do(t, s, http.MethodPost, path, tok, map[string]any{
		"answers": []map[string]any{
			{"questionId": "q1", "optionId": "b"},
			{"questionId": "q2", "optionId": "a"},
		},
		"timeSpent": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var first submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, submitResponse{Score: 1, TotalPoints: 4, TimeSpent: 30}, first)

	rec = do(t, s, http.MethodPost, path, tok, map[string]any{
		"answers": []map[string]any{
			{"questionId": "q2", "optionId": "b"},
			{"questionId": "q3", "optionId": "c"},
		},
		"timeSpent": 45,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, s.AttemptCount())
	a := s.Attempt("u1", "algebra-1")
	require.NotNil(t, a)
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, 45, a.TimeSpent)
	assert.Equal(t, 2, s.PrimaryCalls())
}

func TestSubmitRejectsUnknownIDs(t *testing.T) {
	s := New(testSecret, SampleTests()...)
	tok := token(t, s, "u1")

	rec := do(t, s, http.MethodPost, "/api/groups/demo/tests/algebra-1/submit", tok, map[string]any{
		"answers":   []map[string]any{{"questionId": "q9", "optionId": "a"}},
		"timeSpent": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, s.AttemptCount())
}

func TestLegacySubmitEnvelope(t *testing.T) {
	s := New(testSecret, SampleTests()...)

	rec := do(t, s, http.MethodPost, "/api/tests/history-1/submit", token(t, s, "u1"), map[string]any{
		"answers":   []map[string]any{{"questionId": "q1", "optionId": "a"}},
		"timeSpent": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got legacySubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, legacyResult{Score: 1, MaxScore: 2, TimeSpent: 12}, got.StudentResult)
	assert.Equal(t, 1, s.LegacyCalls())
}

func TestFailureInjection(t *testing.T) {
	s := New(testSecret, SampleTests()...)
	tok := token(t, s, "u1")
	body := map[string]any{"answers": []any{}, "timeSpent": 0}

	s.FailPrimary(2, http.StatusServiceUnavailable)
	for range 2 {
		rec := do(t, s, http.MethodPost, "/api/groups/demo/tests/algebra-1/submit", tok, body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/groups/demo/tests/algebra-1/submit", tok, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, s.PrimaryCalls())
}

func TestResultsOwnOnly(t *testing.T) {
	s := New(testSecret, SampleTests()...)
	tok := token(t, s, "u1")

	rec := do(t, s, http.MethodGet, "/api/groups/demo/tests/history-1/results/u1", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/groups/demo/tests/history-1/results/u2", tok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
