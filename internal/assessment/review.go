package assessment

import (
	"math"
	"time"
)

// Review is the post-submission view of an attempt. Unlike Assessment it
// carries correctness information.
type Review struct {
	AssessmentID string
	Title        string
	Score        int
	TotalPoints  int
	TimeSpent    int
	SubmittedAt  time.Time
	Items        []ReviewItem
}

// ReviewItem describes one question of a reviewed attempt.
type ReviewItem struct {
	QuestionID       string
	Text             string
	Points           int
	SelectedOptionID string
	CorrectOptionIDs []string

	// Reported is the server's own verdict, nil when the server omitted it.
	Reported *bool
}

// IsCorrect prefers the server's verdict and otherwise compares the
// selection against the correct options.
func (i ReviewItem) IsCorrect() bool {
	if i.Reported != nil {
		return *i.Reported
	}
	if i.SelectedOptionID == "" {
		return false
	}
	for _, id := range i.CorrectOptionIDs {
		if id == i.SelectedOptionID {
			return true
		}
	}
	return false
}

// CorrectCount returns how many items were answered correctly.
func (r *Review) CorrectCount() int {
	n := 0
	for _, it := range r.Items {
		if it.IsCorrect() {
			n++
		}
	}
	return n
}

// Percent is Score/TotalPoints as a rounded percentage.
func (r *Review) Percent() int {
	if r.TotalPoints <= 0 {
		return 0
	}
	return int(math.Round(float64(r.Score) / float64(r.TotalPoints) * 100))
}
