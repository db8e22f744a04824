package layout

import (
	"strings"
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-5 * time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{90 * time.Second, "1:30"},
		{30 * time.Minute, "30:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader("Fractions", "⏱ 4:59", 100)
	for _, want := range []string{"sabaq", "Fractions", "4:59"} {
		if !strings.Contains(h, want) {
			t.Errorf("header missing %q", want)
		}
	}
}

func TestIsTooSmall(t *testing.T) {
	if !IsTooSmall(79, 30) || !IsTooSmall(100, 23) {
		t.Error("expected sizes below the minimum to be too small")
	}
	if IsTooSmall(MinWidth, MinHeight) {
		t.Error("expected the minimum size to fit")
	}
}

func TestCompactRanges(t *testing.T) {
	if !IsCompactWidth(80) || IsCompactWidth(CompactWidthThreshold) {
		t.Error("compact width threshold mismatch")
	}
	if !IsCompactHeight(18) || IsCompactHeight(CompactHeightThreshold) {
		t.Error("compact height threshold mismatch")
	}
}

func TestContentHeight(t *testing.T) {
	header := RenderHeader("Fractions", "", 100)
	footer := RenderFooter([]KeyHint{{Key: "Esc", Description: "Back"}}, 100)

	want := 30 - strings.Count(header, "\n") - 1 - strings.Count(footer, "\n") - 1
	if got := ContentHeight(30, header, footer); got != want {
		t.Errorf("ContentHeight(30) = %d, want %d", got, want)
	}
	if got := ContentHeight(2, header, footer); got != 0 {
		t.Errorf("ContentHeight(2) = %d, want 0", got)
	}
}
