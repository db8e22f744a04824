package mockapi

import "time"

// Test is an assessment as the service stores it, correctness included.
type Test struct {
	ID               string
	GroupID          string
	Title            string
	TimeLimitMinutes int
	Deadline         time.Time
	Questions        []Question
}

type Question struct {
	ID      string
	Text    string
	Points  int
	Options []Option
}

type Option struct {
	ID        string
	Text      string
	IsCorrect bool
}

// Attempt is a graded submission.
type Attempt struct {
	UserID      string
	TestID      string
	Answers     []GradedAnswer
	Score       int
	TotalPoints int
	TimeSpent   int
	SubmittedAt time.Time
}

// GradedAnswer is one submitted answer and its verdict.
type GradedAnswer struct {
	QuestionID string
	OptionID   string
	Correct    bool
}

func (t *Test) question(id string) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

func (t *Test) totalPoints() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

func (q *Question) option(id string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// SampleTests returns the fixtures served by the development server.
func SampleTests() []Test {
	return []Test{
		{
			ID:               "algebra-1",
			GroupID:          "demo",
			Title:            "Algebra warm-up",
			TimeLimitMinutes: 5,
			Questions: []Question{
				{ID: "q1", Text: "What is 7 × 8?", Points: 1, Options: []Option{
					{ID: "a", Text: "54"}, {ID: "b", Text: "56", IsCorrect: true}, {ID: "c", Text: "58"},
				}},
				{ID: "q2", Text: "Solve for x: 2x + 6 = 14", Points: 2, Options: []Option{
					{ID: "a", Text: "3"}, {ID: "b", Text: "4", IsCorrect: true}, {ID: "c", Text: "10"},
				}},
				{ID: "q3", Text: "Which is a prime number?", Points: 1, Options: []Option{
					{ID: "a", Text: "21"}, {ID: "b", Text: "27"}, {ID: "c", Text: "29", IsCorrect: true},
				}},
			},
		},
		{
			ID:               "history-1",
			GroupID:          "demo",
			Title:            "Silk Road basics",
			TimeLimitMinutes: 1,
			Questions: []Question{
				{ID: "q1", Text: "Which city was a major Silk Road hub?", Points: 1, Options: []Option{
					{ID: "a", Text: "Samarkand", IsCorrect: true}, {ID: "b", Text: "Oslo"},
				}},
				{ID: "q2", Text: "Which good gave the route its name?", Points: 1, Options: []Option{
					{ID: "a", Text: "Spice"}, {ID: "b", Text: "Silk", IsCorrect: true},
				}},
			},
		},
	}
}
