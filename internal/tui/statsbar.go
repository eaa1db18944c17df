package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flowrite/internal/pacing"
)

var (
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type barStats struct {
	words    int
	goal     int
	elapsed  time.Duration
	timeGoal time.Duration
	rate     int
	pace     pacing.Pace
	rhythm   pacing.RhythmStatus
}

func renderStatsBar(s barStats) string {
	words := fmt.Sprintf("%d / %d words", s.words, s.goal)
	if s.goal > 0 && s.words >= s.goal {
		words += " " + successStyle.Render("Goal Reached!")
	}
	clock := fmt.Sprintf("%s / %s", formatClock(s.elapsed), formatClock(s.timeGoal))
	if s.timeGoal > 0 && s.elapsed >= s.timeGoal {
		clock = successStyle.Render(clock + " Time Goal!")
	}
	segments := []string{
		words,
		clock,
		fmt.Sprintf("%d WPM", s.rate),
		paceStyles[s.pace].Render(s.pace.String()),
		s.rhythm.String(),
	}
	return barStyle.Render(strings.Join(segments, "  "))
}

// formatClock renders whole elapsed seconds as m:ss.
func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
