package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/flowrite/internal/model"
)

func defaultPacing() model.PacingConfig {
	return model.PacingConfig{
		Window:         10 * time.Second,
		IdleTimeout:    5 * time.Second,
		Grace:          10 * time.Second,
		AlarmDebounce:  1500 * time.Millisecond,
		RateInterval:   2 * time.Second,
		PacingInterval: 500 * time.Millisecond,
		ClockInterval:  time.Second,
	}
}

const stallScenario = `
minimum-wpm: 30
target-wpm: 60
word-goal: 500
time-goal: 30m
duration: 20s
events:
  - at: 12s
    append: "a b c d e f g h i j k l m n"
  - at: 5s
    text: ""
`

func withoutRate(timeline []Entry) []Entry {
	var out []Entry
	for _, e := range timeline {
		if e.Kind != "rate" {
			out = append(out, e)
		}
	}
	return out
}

func TestRunStallRecoverStall(t *testing.T) {
	sc, err := Parse([]byte(stallScenario))
	require.NoError(t, err)

	res := Run(sc, defaultPacing())

	type line struct {
		At   time.Duration
		Kind string
	}
	var got []line
	for _, e := range withoutRate(res.Timeline) {
		got = append(got, line{e.At, e.Kind})
	}
	require.Equal(t, []line{
		{5 * time.Second, "text"},
		{11 * time.Second, "alarm-on"},
		{12 * time.Second, "text"},
		{12 * time.Second, "alarm-off"},
		{12 * time.Second, "target"},
		{16 * time.Second, "alarm-on"},
		{20 * time.Second, "alarm-off"},
		{20 * time.Second, "stop"},
	}, got)

	require.True(t, res.Saved)
	require.Equal(t, 14, res.Summary.WordCount)
	require.Equal(t, 20, res.Summary.DurationSeconds)
	require.Equal(t, 42, res.Summary.AverageWPM)
	require.Equal(t, 120, res.Summary.PeakWPM)
	require.Equal(t, 2, res.Summary.Alarms)
}

func TestRunRateTicksFollowInterval(t *testing.T) {
	sc, err := Parse([]byte(stallScenario))
	require.NoError(t, err)

	res := Run(sc, defaultPacing())
	var ats []time.Duration
	for _, e := range res.Timeline {
		if e.Kind == "rate" {
			ats = append(ats, e.At)
		}
	}
	require.Len(t, ats, 10)
	require.Equal(t, 2*time.Second, ats[0])
	require.Equal(t, 20*time.Second, ats[len(ats)-1])
}

func TestRunEndsOnGoal(t *testing.T) {
	sc, err := Parse([]byte(`
word-goal: 3
time-goal: 1m
minimum-wpm: 10
target-wpm: 20
duration: 1m
events:
  - at: 1s
    text: "one"
  - at: 2s
    append: " two three"
  - at: 3s
    append: " four"
`))
	require.NoError(t, err)

	res := Run(sc, defaultPacing())
	last := res.Timeline[len(res.Timeline)-1]
	require.Equal(t, "goal", last.Kind)
	require.Equal(t, 2*time.Second, last.At)
	require.Equal(t, 3, last.Words)
	require.True(t, res.Saved)
	require.True(t, res.Summary.WordGoalAchieved)
}

func TestRunEmptySessionIsNotSaved(t *testing.T) {
	sc, err := Parse([]byte("minimum-wpm: 30\ntarget-wpm: 60\nduration: 3s\n"))
	require.NoError(t, err)

	res := Run(sc, defaultPacing())
	require.False(t, res.Saved)
	require.Equal(t, "stop", res.Timeline[len(res.Timeline)-1].Kind)
}

func TestPacingOverride(t *testing.T) {
	sc, err := Parse([]byte(`
minimum-wpm: 30
duration: 10s
pacing:
  grace: 2s
  alarm-debounce: 1s
`))
	require.NoError(t, err)

	res := Run(sc, defaultPacing())
	var alarmAt time.Duration
	for _, e := range res.Timeline {
		if e.Kind == "alarm-on" {
			alarmAt = e.At
			break
		}
	}
	require.Equal(t, 2500*time.Millisecond, alarmAt)
}

func TestParseRejectsBadScenarios(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "duration: 5s\nspeed: 3\n",
		"no duration":   "minimum-wpm: 30\n",
		"past duration": "duration: 5s\nevents:\n  - at: 6s\n    text: x\n",
		"both fields":   "duration: 5s\nevents:\n  - at: 1s\n    text: x\n    append: y\n",
		"negative goal": "duration: 5s\nword-goal: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(stallScenario), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, sc.Duration)
	require.Equal(t, 5*time.Second, sc.Steps[0].At)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
