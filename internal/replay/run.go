package replay

import (
	"time"

	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/session"
	"github.com/verte-zerg/flowrite/internal/wpm"
)

// Entry is one line of the replay timeline.
type Entry struct {
	At    time.Duration `yaml:"at"`
	Kind  string        `yaml:"kind"`
	Words int           `yaml:"words"`
	Rate  int           `yaml:"rate"`
}

// Result is the outcome of a replay.
type Result struct {
	Timeline []Entry              `yaml:"timeline"`
	Summary  model.WritingSession `yaml:"summary"`
	Saved    bool                 `yaml:"saved"`
}

// Run plays sc through a fresh controller. Text changes at an instant are
// applied before ticks due at the same instant. Ticks start one interval after
// the session begins, as a real timer would.
func Run(sc *Scenario, base model.PacingConfig) Result {
	pacingCfg := sc.Pacing.Apply(base)
	if pacingCfg.RateInterval <= 0 {
		pacingCfg.RateInterval = 2 * time.Second
	}
	if pacingCfg.PacingInterval <= 0 {
		pacingCfg.PacingInterval = 500 * time.Millisecond
	}

	start := time.Unix(0, 0).UTC()
	now := start
	ctrl := session.New(func() time.Time { return now }, pacingCfg)
	ctrl.Start(sc.SessionConfig())

	var res Result
	record := func(events []session.Event) {
		for _, ev := range events {
			res.Timeline = append(res.Timeline, Entry{
				At:    now.Sub(start),
				Kind:  ev.Kind.String(),
				Words: ctrl.Words(),
				Rate:  ev.Rate,
			})
		}
	}

	text := ""
	nextStep := 0
	nextRate := pacingCfg.RateInterval
	nextPacing := pacingCfg.PacingInterval

	for ctrl.Active() {
		at := sc.Duration
		if nextStep < len(sc.Steps) && sc.Steps[nextStep].At < at {
			at = sc.Steps[nextStep].At
		}
		if nextRate < at {
			at = nextRate
		}
		if nextPacing < at {
			at = nextPacing
		}
		now = start.Add(at)

		for nextStep < len(sc.Steps) && sc.Steps[nextStep].At == at && ctrl.Active() {
			step := sc.Steps[nextStep]
			nextStep++
			if step.Text != nil {
				text = *step.Text
			} else {
				text += step.Append
			}
			res.Timeline = append(res.Timeline, Entry{At: at, Kind: "text", Words: wpm.CountWords(text), Rate: ctrl.Rate()})
			record(ctrl.TextChanged(text))
		}
		if !ctrl.Active() {
			break
		}
		if nextRate == at {
			record(ctrl.RateTick())
			nextRate += pacingCfg.RateInterval
		}
		if nextPacing == at {
			record(ctrl.PacingTick())
			nextPacing += pacingCfg.PacingInterval
		}
		if at == sc.Duration {
			events := ctrl.Stop()
			record(events)
			res.Timeline = append(res.Timeline, Entry{At: at, Kind: "stop", Words: ctrl.Words(), Rate: ctrl.Rate()})
		}
	}

	res.Summary = ctrl.Summary()
	res.Saved = ctrl.ShouldPersist()
	return res
}
