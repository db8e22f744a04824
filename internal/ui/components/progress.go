package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/sabaqlab/sabaq/internal/ui/theme"
)

// ProgressBar displays answered/total as a horizontal bar.
type ProgressBar struct {
	Done    int
	Total   int
	Percent int // 0-100, already rounded by the caller
	Width   int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(done, total, percent, width int) ProgressBar {
	return ProgressBar{Done: done, Total: total, Percent: percent, Width: width}
}

// View renders the bar followed by "done/total  pct%".
func (p ProgressBar) View() string {
	suffix := fmt.Sprintf("  %d/%d  %d%%", p.Done, p.Total, p.Percent)

	barWidth := p.Width - len(suffix)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := barWidth * p.Percent / 100
	filled = max(0, min(filled, barWidth))

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix)
}
