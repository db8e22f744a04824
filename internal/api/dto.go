package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/copier"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// ID is an identifier as it appears on the wire: a string, a number, or an
// object wrapping either. It is normalized to a canonical string on decode so
// nothing downstream ever compares mixed representations.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(assessment.NormalizeID(v))
	return nil
}

// orID returns id, or fallback when id is empty. The backend emits either
// "id" or "_id" depending on the endpoint.
func orID(id, fallback ID) ID {
	if id != "" {
		return id
	}
	return fallback
}

type optionDTO struct {
	ID        ID     `json:"id"`
	LegacyID  ID     `json:"_id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type questionDTO struct {
	ID       ID          `json:"id"`
	LegacyID ID          `json:"_id"`
	Text     string      `json:"text"`
	Points   int         `json:"points"`
	Options  []optionDTO `json:"options"`
}

type assessmentDTO struct {
	ID               ID            `json:"id"`
	LegacyID         ID            `json:"_id"`
	Title            string        `json:"title"`
	TimeLimitMinutes float64       `json:"timeLimitMinutes"`
	TimeLimit        float64       `json:"timeLimit"`
	Deadline         *time.Time    `json:"deadline,omitempty"`
	Questions        []questionDTO `json:"questions"`
}

// normalize folds "_id" into "id" throughout the tree.
func (d *assessmentDTO) normalize() {
	d.ID = orID(d.ID, d.LegacyID)
	for i := range d.Questions {
		q := &d.Questions[i]
		q.ID = orID(q.ID, q.LegacyID)
		for j := range q.Options {
			q.Options[j].ID = orID(q.Options[j].ID, q.Options[j].LegacyID)
		}
	}
}

func (d *assessmentDTO) minutes() float64 {
	if d.TimeLimitMinutes > 0 {
		return d.TimeLimitMinutes
	}
	return d.TimeLimit
}

// toDomain maps the wire payload onto an Assessment. Option correctness flags
// have no destination field and are dropped here.
func (d *assessmentDTO) toDomain(groupID string) (*assessment.Assessment, error) {
	d.normalize()

	a := &assessment.Assessment{
		ID:        string(d.ID),
		GroupID:   groupID,
		Title:     d.Title,
		TimeLimit: time.Duration(d.minutes() * float64(time.Minute)),
	}
	if d.Deadline != nil {
		a.Deadline = *d.Deadline
	}
	if err := copier.Copy(&a.Questions, d.Questions); err != nil {
		return nil, fmt.Errorf("map questions: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

type submitRequest struct {
	Answers   []assessment.Answer `json:"answers"`
	TimeSpent int                 `json:"timeSpent"`
}

type reviewAnswerDTO struct {
	QuestionID ID    `json:"questionId"`
	OptionID   ID    `json:"optionId"`
	Correct    *bool `json:"correct,omitempty"`
}

type resultDTO struct {
	Score       int               `json:"score"`
	TotalPoints int               `json:"totalPoints"`
	MaxScore    int               `json:"maxScore"`
	TimeSpent   int               `json:"timeSpent"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	Answers     []reviewAnswerDTO `json:"answers"`
	Test        *assessmentDTO    `json:"test,omitempty"`
}

// resultEnvelope accepts both a bare result and one nested under
// "studentResult".
type resultEnvelope struct {
	resultDTO
	StudentResult *resultDTO `json:"studentResult,omitempty"`
}

func (e *resultEnvelope) result() *resultDTO {
	if e.StudentResult != nil {
		return e.StudentResult
	}
	return &e.resultDTO
}

func (r *resultDTO) total() int {
	if r.TotalPoints > 0 {
		return r.TotalPoints
	}
	return r.MaxScore
}

func (r *resultDTO) toResult() *assessment.Result {
	return &assessment.Result{
		Score:       r.Score,
		TotalPoints: r.total(),
		TimeSpent:   r.TimeSpent,
	}
}

// toReview joins the submitted answers with the (now revealed) test
// definition. Without a test definition only the answers are listed.
func (r *resultDTO) toReview(assessmentID string) *assessment.Review {
	rev := &assessment.Review{
		AssessmentID: assessmentID,
		Score:        r.Score,
		TotalPoints:  r.total(),
		TimeSpent:    r.TimeSpent,
	}
	if r.SubmittedAt != nil {
		rev.SubmittedAt = *r.SubmittedAt
	}

	byQuestion := make(map[string]reviewAnswerDTO, len(r.Answers))
	for _, a := range r.Answers {
		byQuestion[string(a.QuestionID)] = a
	}

	if r.Test == nil {
		for _, a := range r.Answers {
			rev.Items = append(rev.Items, assessment.ReviewItem{
				QuestionID:       string(a.QuestionID),
				SelectedOptionID: string(a.OptionID),
				Reported:         a.Correct,
			})
		}
		return rev
	}

	r.Test.normalize()
	rev.Title = r.Test.Title
	for _, q := range r.Test.Questions {
		item := assessment.ReviewItem{
			QuestionID: string(q.ID),
			Text:       q.Text,
			Points:     q.Points,
		}
		for _, o := range q.Options {
			if o.IsCorrect != nil && *o.IsCorrect {
				item.CorrectOptionIDs = append(item.CorrectOptionIDs, string(o.ID))
			}
		}
		if a, ok := byQuestion[string(q.ID)]; ok {
			item.SelectedOptionID = string(a.OptionID)
			item.Reported = a.Correct
		}
		rev.Items = append(rev.Items, item)
	}
	return rev
}
