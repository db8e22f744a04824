package mockapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

func (s *Server) getTest(ctx *gin.Context) {
	s.mu.Lock()
	t, ok := s.lookup(ctx.Param("group_id"), ctx.Param("test_id"))
	var resp testResponse
	if ok {
		resp = toTestResponse(t)
	}
	s.mu.Unlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Message: "Test not found"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) submitPrimary(ctx *gin.Context) {
	a, ok := s.submit(ctx, ctx.Param("group_id"), true)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, submitResponse{Score: a.Score, TotalPoints: a.TotalPoints, TimeSpent: a.TimeSpent})
}

func (s *Server) submitLegacy(ctx *gin.Context) {
	a, ok := s.submit(ctx, "", false)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, legacySubmitResponse{
		StudentResult: legacyResult{Score: a.Score, MaxScore: a.TotalPoints, TimeSpent: a.TimeSpent},
	})
}

// submit grades and stores an attempt, replacing any earlier attempt by the
// same user. It writes the error response itself and reports false on
// failure.
func (s *Server) submit(ctx *gin.Context, groupID string, checkGroup bool) (*Attempt, bool) {
	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("submit: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return nil, false
	}

	userID := ctx.GetString(userIDKey)
	testID := ctx.Param("test_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		t  *Test
		ok bool
	)
	if checkGroup {
		t, ok = s.lookup(groupID, testID)
	} else {
		t, ok = s.tests[testID]
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Message: "Test not found"})
		return nil, false
	}

	a, err := grade(t, req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return nil, false
	}
	a.UserID = userID
	a.SubmittedAt = s.now()

	key := attemptKey{userID: userID, testID: t.ID}
	if _, exists := s.attempts[key]; exists {
		log.Info().Str("user_id", userID).Str("test_id", t.ID).Msg("replacing previous attempt")
	}
	s.attempts[key] = a

	cp := *a
	return &cp, true
}

func (s *Server) getResults(ctx *gin.Context) {
	userID := ctx.Param("user_id")
	if userID != ctx.GetString(userIDKey) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{Message: "Cannot view another user's results"})
		return
	}

	s.mu.Lock()
	t, ok := s.lookup(ctx.Param("group_id"), ctx.Param("test_id"))
	var a *Attempt
	if ok {
		a = s.attempts[attemptKey{userID: userID, testID: t.ID}]
	}
	var resp resultResponse
	if a != nil {
		resp = toResultResponse(a, t)
	}
	s.mu.Unlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Message: "Test not found"})
		return
	}
	if a == nil {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Message: "No result for this user"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// lookup finds a test within a group. Callers hold s.mu.
func (s *Server) lookup(groupID, testID string) (*Test, bool) {
	t, ok := s.tests[testID]
	if !ok || t.GroupID != groupID {
		return nil, false
	}
	return t, true
}

// grade scores a submission: each correct selection earns its question's
// points. Questions left out count as wrong.
func grade(t *Test, req submitRequest) (*Attempt, error) {
	a := &Attempt{
		TestID:      t.ID,
		TotalPoints: t.totalPoints(),
		TimeSpent:   req.TimeSpent,
	}
	seen := make(map[string]bool, len(req.Answers))
	for _, ans := range req.Answers {
		qid := assessment.NormalizeID(ans.QuestionID)
		oid := assessment.NormalizeID(ans.OptionID)

		q := t.question(qid)
		if q == nil {
			return nil, fmt.Errorf("unknown question %q", qid)
		}
		if seen[qid] {
			return nil, fmt.Errorf("duplicate answer for question %q", qid)
		}
		seen[qid] = true

		o := q.option(oid)
		if o == nil {
			return nil, fmt.Errorf("unknown option %q for question %q", oid, qid)
		}
		if o.IsCorrect {
			a.Score += q.Points
		}
		a.Answers = append(a.Answers, GradedAnswer{QuestionID: qid, OptionID: oid, Correct: o.IsCorrect})
	}
	return a, nil
}
