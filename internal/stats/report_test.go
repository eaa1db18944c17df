package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/store"
)

func sampleSessions() []model.WritingSession {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mk := func(i, words, seconds, avg int, goal bool) model.WritingSession {
		start := base.Add(time.Duration(i) * time.Hour)
		return model.WritingSession{
			ID:               string(rune('a' + i)),
			StartedAt:        start,
			EndedAt:          start.Add(time.Duration(seconds) * time.Second),
			WordCount:        words,
			DurationSeconds:  seconds,
			AverageWPM:       avg,
			PeakWPM:          avg + 10,
			WordGoal:         500,
			WordGoalAchieved: goal,
			Alarms:           i,
		}
	}
	return []model.WritingSession{
		mk(0, 500, 600, 50, true),
		mk(1, 200, 300, 40, false),
		mk(2, 1100, 1500, 45, true),
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleSessions())
	if sum.Sessions != 3 || sum.TotalWords != 1800 || sum.TotalSeconds != 2400 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.AverageWPM != 45 || sum.BestWPM != 50 || sum.PeakWPM != 60 {
		t.Fatalf("unexpected rates: %+v", sum)
	}
	if sum.GoalsAchieved != 2 || sum.Alarms != 3 {
		t.Fatalf("unexpected goals: %+v", sum)
	}
	if empty := Summarize(nil); empty != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "0m 0s", 65: "1m 5s", 3725: "1h 2m 5s", -3: "0m 0s"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Summarize(sampleSessions())); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Total words: 1,800", "Total time: 40m 0s", "Avg WPM: 45", "Goals achieved: 2/3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, Summary{}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if buf.String() != "No sessions found.\n" {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}

func TestRenderSessions(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSessions(&buf, sampleSessions()); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected title, header and 3 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[4], "1,100") || !strings.HasSuffix(lines[4], "yes") {
		t.Fatalf("unexpected last row %q", lines[4])
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "flowrite.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for _, ws := range sampleSessions() {
		if err := st.InsertSession(ctx, ws); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{Last: 2, CurveWindow: 3})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != "b" || report.Sessions[1].ID != "c" {
		t.Fatalf("unexpected session ids: %s %s", report.Sessions[0].ID, report.Sessions[1].ID)
	}
	if report.Summary.TotalWords != 1300 || report.Window != 3 {
		t.Fatalf("unexpected report: %+v", report.Summary)
	}
}
