package mockapi

import "time"

// The service speaks the document-store dialect: identifiers are "_id".

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type optionResponse struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type questionResponse struct {
	ID      string           `json:"_id"`
	Text    string           `json:"text"`
	Points  int              `json:"points"`
	Options []optionResponse `json:"options"`
}

type testResponse struct {
	ID        string             `json:"_id"`
	Title     string             `json:"title"`
	TimeLimit int                `json:"timeLimit"`
	Deadline  *time.Time         `json:"deadline,omitempty"`
	Questions []questionResponse `json:"questions"`
}

// submittedAnswer accepts ids of any JSON type.
type submittedAnswer struct {
	QuestionID any `json:"questionId"`
	OptionID   any `json:"optionId"`
}

type submitRequest struct {
	Answers   []submittedAnswer `json:"answers"`
	TimeSpent int               `json:"timeSpent" binding:"gte=0"`
}

type submitResponse struct {
	Score       int `json:"score"`
	TotalPoints int `json:"totalPoints"`
	TimeSpent   int `json:"timeSpent"`
}

type legacyResult struct {
	Score     int `json:"score"`
	MaxScore  int `json:"maxScore"`
	TimeSpent int `json:"timeSpent"`
}

type legacySubmitResponse struct {
	StudentResult legacyResult `json:"studentResult"`
}

type gradedAnswerResponse struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
	Correct    bool   `json:"correct"`
}

type resultResponse struct {
	Score       int                    `json:"score"`
	TotalPoints int                    `json:"totalPoints"`
	TimeSpent   int                    `json:"timeSpent"`
	SubmittedAt time.Time              `json:"submittedAt"`
	Answers     []gradedAnswerResponse `json:"answers"`
	Test        testResponse           `json:"test"`
}

func toTestResponse(t *Test) testResponse {
	resp := testResponse{
		ID:        t.ID,
		Title:     t.Title,
		TimeLimit: t.TimeLimitMinutes,
	}
	if !t.Deadline.IsZero() {
		d := t.Deadline
		resp.Deadline = &d
	}
	for _, q := range t.Questions {
		qr := questionResponse{ID: q.ID, Text: q.Text, Points: q.Points}
		for _, o := range q.Options {
			qr.Options = append(qr.Options, optionResponse(o))
		}
		resp.Questions = append(resp.Questions, qr)
	}
	return resp
}

func toResultResponse(a *Attempt, t *Test) resultResponse {
	resp := resultResponse{
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		TimeSpent:   a.TimeSpent,
		SubmittedAt: a.SubmittedAt,
		Answers:     make([]gradedAnswerResponse, 0, len(a.Answers)),
		Test:        toTestResponse(t),
	}
	for _, ans := range a.Answers {
		resp.Answers = append(resp.Answers, gradedAnswerResponse(ans))
	}
	return resp
}
