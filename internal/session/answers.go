package session

import (
	"errors"
	"math"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

var (
	// ErrUnknownQuestion is returned when selecting for a question that is
	// not part of the assessment.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrUnknownOption is returned when the option does not belong to the
	// question.
	ErrUnknownOption = errors.New("unknown option")
)

// AnswerTracker records the current single selection per question. It is
// not safe for concurrent use; Session serializes access.
type AnswerTracker struct {
	a        *assessment.Assessment
	order    []string
	selected map[string]string
}

// NewAnswerTracker creates a tracker with every question unanswered, in the
// assessment's question order.
func NewAnswerTracker(a *assessment.Assessment) *AnswerTracker {
	return &AnswerTracker{
		a:        a,
		order:    a.QuestionIDs(),
		selected: make(map[string]string, len(a.Questions)),
	}
}

// Select records optionID for questionID, replacing any earlier selection.
func (t *AnswerTracker) Select(questionID, optionID string) error {
	q := t.a.Question(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}
	if !q.HasOption(optionID) {
		return ErrUnknownOption
	}
	t.selected[questionID] = optionID
	return nil
}

// Selection returns the selected option for a question, if any.
func (t *AnswerTracker) Selection(questionID string) (string, bool) {
	o, ok := t.selected[questionID]
	return o, ok
}

// Total is the number of questions.
func (t *AnswerTracker) Total() int { return len(t.order) }

// AnsweredCount is the number of questions with a selection.
func (t *AnswerTracker) AnsweredCount() int { return len(t.selected) }

// IsComplete reports whether every question has a selection.
func (t *AnswerTracker) IsComplete() bool {
	return t.AnsweredCount() == t.Total()
}

// ProgressPercent is answered/total*100 rounded to the nearest integer.
// An assessment without questions counts as complete.
func (t *AnswerTracker) ProgressPercent() int {
	if t.Total() == 0 {
		return 100
	}
	return int(math.Round(float64(t.AnsweredCount()) / float64(t.Total()) * 100))
}

// Answers returns the selections in question order. Unanswered questions
// are omitted.
func (t *AnswerTracker) Answers() []assessment.Answer {
	out := make([]assessment.Answer, 0, len(t.selected))
	for _, id := range t.order {
		if o, ok := t.selected[id]; ok {
			out = append(out, assessment.Answer{QuestionID: id, OptionID: o})
		}
	}
	return out
}
