package assessment

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Assessment is a timed set of multiple-choice questions. It is owned by a
// single session and never mutated once the session has started.
type Assessment struct {
	ID        string `validate:"required"`
	GroupID   string
	Title     string
	Questions []Question    `validate:"required,min=1,dive"`
	TimeLimit time.Duration `validate:"gt=0"`
	Deadline  time.Time
}

// Question is one multiple-choice item. Options are kept in server order.
type Question struct {
	ID      string `validate:"required"`
	Text    string
	Points  int      `validate:"gte=0"`
	Options []Option `validate:"required,min=1,dive"`
}

// Option is a selectable answer. It deliberately has no correctness flag:
// correctness is only revealed through a Review after submission.
type Option struct {
	ID   string `validate:"required"`
	Text string
}

// Answer is one formatted (questionId, optionId) pair sent to the server.
type Answer struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// Result is what the server reports for an accepted submission. It is handed
// to the results view as-is.
type Result struct {
	Score       int `json:"score"`
	TotalPoints int `json:"totalPoints"`
	TimeSpent   int `json:"timeSpent"`
}

// Validate checks the structural invariants a session relies on.
func (a *Assessment) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid assessment: %w", err)
	}
	seen := make(map[string]bool, len(a.Questions))
	for _, q := range a.Questions {
		if seen[q.ID] {
			return fmt.Errorf("invalid assessment: duplicate question id %q", q.ID)
		}
		seen[q.ID] = true

		opts := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if opts[o.ID] {
				return fmt.Errorf("invalid assessment: duplicate option id %q in question %q", o.ID, q.ID)
			}
			opts[o.ID] = true
		}
	}
	return nil
}

// QuestionIDs returns the question ids in server order.
func (a *Assessment) QuestionIDs() []string {
	ids := make([]string, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Question returns the question with the given id, or nil.
func (a *Assessment) Question(id string) *Question {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i]
		}
	}
	return nil
}

// HasOption reports whether optionID belongs to the question.
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// TimeLimitSeconds is the countdown length in whole seconds. A fractional
// second counts as a full one.
func (a *Assessment) TimeLimitSeconds() int {
	return max(int(math.Ceil(a.TimeLimit.Seconds())), 0)
}
