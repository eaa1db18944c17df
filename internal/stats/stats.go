// Package stats contains history summaries and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/flowrite/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions      int `yaml:"sessions"`
	TotalWords    int `yaml:"total_words"`
	TotalSeconds  int `yaml:"total_seconds"`
	AverageWPM    int `yaml:"average_wpm"`
	BestWPM       int `yaml:"best_wpm"`
	PeakWPM       int `yaml:"peak_wpm"`
	GoalsAchieved int `yaml:"goals_achieved"`
	Alarms        int `yaml:"alarms"`
}

// Summarize totals sessions. The average is the rounded mean of per-session
// averages.
func Summarize(sessions []model.WritingSession) Summary {
	sum := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return sum
	}
	var avgTotal int
	for _, s := range sessions {
		sum.TotalWords += s.WordCount
		sum.TotalSeconds += s.DurationSeconds
		sum.Alarms += s.Alarms
		avgTotal += s.AverageWPM
		if s.AverageWPM > sum.BestWPM {
			sum.BestWPM = s.AverageWPM
		}
		if s.PeakWPM > sum.PeakWPM {
			sum.PeakWPM = s.PeakWPM
		}
		if s.WordGoalAchieved {
			sum.GoalsAchieved++
		}
	}
	sum.AverageWPM = int(math.Round(float64(avgTotal) / float64(len(sessions))))
	return sum
}

// FormatDuration renders whole seconds as "12m 5s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%dh %dm %ds", seconds/3600, seconds%3600/60, seconds%60)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	top := float64(len(sparkChars) - 1)
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * top))
		b.WriteByte(sparkChars[clamp(idx, 0, len(sparkChars)-1)])
	}
	return b.String()
}

// WPMSeries extracts per-session averages in order.
func WPMSeries(sessions []model.WritingSession) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = float64(s.AverageWPM)
	}
	return out
}

// WordSeries extracts per-session word counts in order.
func WordSeries(sessions []model.WritingSession) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = float64(s.WordCount)
	}
	return out
}

// RenderSummary prints the totals block.
func RenderSummary(w io.Writer, sum Summary) error {
	if sum.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Total words: %s", humanize.Comma(int64(sum.TotalWords))),
		fmt.Sprintf("Total time: %s", FormatDuration(sum.TotalSeconds)),
		fmt.Sprintf("Avg WPM: %d", sum.AverageWPM),
		fmt.Sprintf("Best WPM: %d", sum.BestWPM),
		fmt.Sprintf("Goals achieved: %d/%d", sum.GoalsAchieved, sum.Sessions),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SessionRows formats sessions for tabular output, newest last.
func SessionRows(sessions []model.WritingSession) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		goal := "no"
		if s.WordGoalAchieved {
			goal = "yes"
		}
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			humanize.Comma(int64(s.WordCount)),
			FormatDuration(s.DurationSeconds),
			fmt.Sprintf("%d", s.AverageWPM),
			fmt.Sprintf("%d", s.PeakWPM),
			fmt.Sprintf("%d", s.Alarms),
			goal,
		})
	}
	return rows
}

// SessionHeaders names the SessionRows columns.
var SessionHeaders = []string{"Date", "Words", "Duration", "Avg WPM", "Peak", "Alarms", "Goal"}

// RenderSessions prints a plain aligned table of sessions.
func RenderSessions(w io.Writer, sessions []model.WritingSession) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(SessionHeaders, SessionRows(sessions), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints the WPM and word-count curves sized to totalWidth.
func RenderTrend(w io.Writer, sessions []model.WritingSession, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Trend", []Series{
		{Name: "WPM", Values: MovingAverage(WPMSeries(sessions), window)},
		{Name: "Words", Values: MovingAverage(WordSeries(sessions), window)},
	}, width, height, useColor)
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
