package take

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/session"
	"github.com/sabaqlab/sabaq/internal/submit"
	"github.com/sabaqlab/sabaq/internal/ui/components"
	"github.com/sabaqlab/sabaq/internal/ui/layout"
	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

func (s *TakeScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.sess == nil:
		return renderLoading(width)
	case s.submitting:
		return renderSubmitting(width)
	case s.confirmQuit:
		return renderQuitConfirm(width, s.sess.Phase() == session.PhaseFailed)
	case s.confirmSubmit:
		return renderSubmitConfirm(width, s.sess.Progress())
	}
	return s.renderQuestionView(width, height)
}

func (s *TakeScreen) renderQuestionView(width, height int) string {
	var b strings.Builder
	p := s.sess.Progress()
	total := len(s.sess.Assessment().Questions)

	// Short terminals drop the spacer lines so the options stay visible.
	gap := "\n\n"
	if layout.IsCompactHeight(height) {
		gap = "\n"
	} else {
		b.WriteString("\n")
	}

	contentWidth := min(width-8, 72)
	pad := lipgloss.NewStyle().PaddingLeft(max(0, (width-contentWidth)/2))

	b.WriteString(pad.Render(components.NewProgressBar(p.Answered, p.Total, p.Percent, contentWidth).View()))
	b.WriteString(gap)

	counter := fmt.Sprintf("Question %d of %d", s.current+1, total)
	if q := s.sess.Assessment().Questions[s.current]; q.Points > 0 {
		counter += fmt.Sprintf("  ·  %d pt", q.Points)
		if q.Points != 1 {
			counter += "s"
		}
	}
	b.WriteString(pad.Render(lipgloss.NewStyle().Foreground(theme.TextDim).Render(counter)))
	b.WriteString(gap)

	b.WriteString(pad.Render(lipgloss.NewStyle().Width(contentWidth).Render(s.choice.View())))
	b.WriteString("\n")

	if s.sess.Phase() == session.PhaseFailed {
		b.WriteString(renderFailure(width, s.submitErr))
		return b.String()
	}

	if rem := s.sess.Remaining(); rem <= time.Minute {
		warning := fmt.Sprintf("%s left. Your answers are submitted automatically when time runs out.",
			layout.FormatClock(rem))
		if layout.IsCompactWidth(width) {
			warning = fmt.Sprintf("%s left.", layout.FormatClock(rem))
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Warning.Render(warning)))
	}

	return b.String()
}

// renderFailure explains a failed submission. The answers are frozen and
// only a retry is possible.
func renderFailure(width int, err error) string {
	msg := "Could not submit your test. Stay on this page and try again."
	var se *submit.SubmitError
	if errors.As(err, &se) {
		msg = se.UserMessage()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Bold(true).
		Render(msg))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[R] Try again"))
	return b.String()
}

func renderSubmitConfirm(width int, p session.Progress) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Submit your answers?"))
	b.WriteString("\n")

	note := fmt.Sprintf("You answered all %d questions.", p.Total)
	color := theme.TextDim
	if !p.Complete {
		note = fmt.Sprintf("%d of %d questions are unanswered.", p.Total-p.Answered, p.Total)
		color = theme.Accent
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(color).
		Render(note))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Render("[Y] Yes, submit"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep working"))

	return b.String()
}

func renderQuitConfirm(width int, failed bool) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Leave this test?"))
	b.WriteString("\n")

	note := "Your answers will not be submitted."
	if failed {
		note = "Your answers stay saved. Run `sabaq backups resubmit` to send them later."
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(note))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, stay"))

	return b.String()
}

func renderSubmitting(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Submitting your answers...")
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Loading assessment...")
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", errMsg))
}
