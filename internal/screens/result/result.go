package result

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/router"
	"github.com/sabaqlab/sabaq/internal/screen"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// ReviewFunc fetches the graded review of the caller's latest attempt.
type ReviewFunc func(ctx context.Context, groupID, assessmentID string) (*assessment.Review, error)

type reviewLoadedMsg struct {
	Review *assessment.Review
	Err    error
}

// ResultScreen shows the result the service returned for a submission.
type ResultScreen struct {
	result     *assessment.Result
	assessment *assessment.Assessment
	reviews    ReviewFunc

	review        *assessment.Review
	loadingReview bool
	reviewErr     string
	offset        int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a ResultScreen. a supplies the title and option texts; reviews
// may be nil, in which case the review key is hidden.
func New(res *assessment.Result, a *assessment.Assessment, reviews ReviewFunc) *ResultScreen {
	return &ResultScreen{result: res, assessment: a, reviews: reviews}
}

func (s *ResultScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultScreen) Title() string {
	return "Result"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Done"}}
	if s.reviews != nil && s.review == nil {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Review answers"})
	}
	if s.review != nil {
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Scroll"})
	}
	return hints
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reviewLoadedMsg:
		s.loadingReview = false
		if msg.Err != nil {
			s.reviewErr = msg.Err.Error()
			return s, nil
		}
		s.review = msg.Review
		s.reviewErr = ""
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r":
			return s, s.fetchReview()
		case "down", "j":
			if s.review != nil && s.offset < len(s.review.Items)-1 {
				s.offset++
			}
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		}
	}
	return s, nil
}

func (s *ResultScreen) fetchReview() tea.Cmd {
	if s.reviews == nil || s.loadingReview || s.review != nil || s.assessment == nil {
		return nil
	}
	s.loadingReview = true
	s.reviewErr = ""
	fetch := s.reviews
	groupID, id := s.assessment.GroupID, s.assessment.ID
	return func() tea.Msg {
		rev, err := fetch(context.Background(), groupID, id)
		if err != nil {
			log.Warn().Err(err).Str("assessment_id", id).Msg("failed to fetch review")
		}
		return reviewLoadedMsg{Review: rev, Err: err}
	}
}

func (s *ResultScreen) View(width, height int) string {
	var b strings.Builder
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Success).Bold(true).Render("Test submitted"))
	b.WriteString("\n")
	if s.assessment != nil && s.assessment.Title != "" {
		b.WriteString(center.Foreground(theme.TextDim).Render(s.assessment.Title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s.result != nil {
		b.WriteString(center.Foreground(theme.Text).Bold(true).
			Render(fmt.Sprintf("Score: %d / %d", s.result.Score, s.result.TotalPoints)))
		b.WriteString("\n")
		b.WriteString(center.Foreground(theme.TextDim).
			Render(fmt.Sprintf("Time spent: %s", formatSeconds(s.result.TimeSpent))))
		b.WriteString("\n\n")
	}

	switch {
	case s.loadingReview:
		b.WriteString(center.Foreground(theme.TextDim).Render("Loading review..."))
	case s.reviewErr != "":
		b.WriteString(center.Foreground(theme.Error).Render("Could not load review: " + s.reviewErr))
	case s.review != nil:
		b.WriteString(s.renderReview(width, height-lipgloss.Height(b.String())))
	}

	return b.String()
}

func (s *ResultScreen) renderReview(width, height int) string {
	rev := s.review
	var b strings.Builder

	summary := fmt.Sprintf("%d of %d correct  (%d%%)", rev.CorrectCount(), len(rev.Items), rev.Percent())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Render(summary)))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))))
	b.WriteString("\n")

	// Each item takes two lines.
	visible := max(1, (height-3)/2)
	end := min(len(rev.Items), s.offset+visible)
	for i := s.offset; i < end; i++ {
		it := rev.Items[i]
		mark, style := "✗", theme.Incorrect
		if it.IsCorrect() {
			mark, style = "✓", theme.Correct
		}
		b.WriteString(style.Render(fmt.Sprintf("  %s %d. %s", mark, i+1, it.Text)))
		b.WriteString("\n")

		detail := "not answered"
		if it.SelectedOptionID != "" {
			detail = "your answer: " + s.optionText(it.QuestionID, it.SelectedOptionID)
		}
		if !it.IsCorrect() && len(it.CorrectOptionIDs) > 0 {
			detail += "   correct: " + s.optionText(it.QuestionID, it.CorrectOptionIDs[0])
		}
		b.WriteString(theme.Hint.Render("      " + detail))
		b.WriteString("\n")
	}
	return b.String()
}

// optionText resolves an option id to its text, falling back to the id when
// the assessment is unknown.
func (s *ResultScreen) optionText(questionID, optionID string) string {
	if s.assessment == nil {
		return optionID
	}
	q := s.assessment.Question(questionID)
	if q == nil {
		return optionID
	}
	for _, o := range q.Options {
		if o.ID == optionID {
			return o.Text
		}
	}
	return optionID
}

func formatSeconds(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
