// Package session drives one writing session: it feeds text changes into the
// rate estimator, evaluates pacing on each tick and produces the summary that
// gets persisted when the session ends.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/pacing"
	"github.com/verte-zerg/flowrite/internal/wpm"
)

// EventKind identifies a controller output.
type EventKind int

const (
	EventRateUpdated EventKind = iota
	EventAlarmActivated
	EventAlarmDeactivated
	EventTargetReached
	EventGoalReached
)

func (k EventKind) String() string {
	switch k {
	case EventRateUpdated:
		return "rate"
	case EventAlarmActivated:
		return "alarm-on"
	case EventAlarmDeactivated:
		return "alarm-off"
	case EventTargetReached:
		return "target"
	case EventGoalReached:
		return "goal"
	default:
		return "unknown"
	}
}

// Event is something presentation or audio should react to.
type Event struct {
	Kind    EventKind
	Rate    int
	Elapsed time.Duration
}

// Controller owns the estimator and pacing machine of the active session.
// Methods must be called from a single goroutine.
type Controller struct {
	clock  wpm.Clock
	pacing model.PacingConfig

	estimator *wpm.Estimator
	machine   *pacing.Machine

	id        string
	cfg       model.SessionConfig
	active    bool
	startedAt time.Time
	endedAt   time.Time
	text      string
	words     int
	rate      int
	peak      int
	alarms    int
	goalHit   bool
}

// New returns an idle controller. A nil clock uses time.Now.
func New(clock wpm.Clock, pacingCfg model.PacingConfig) *Controller {
	if clock == nil {
		clock = time.Now
	}
	return &Controller{clock: clock, pacing: pacingCfg}
}

// Start begins a new session and returns its ID. Any previous session state is
// discarded, including the estimator window.
func (c *Controller) Start(cfg model.SessionConfig) string {
	c.estimator = wpm.NewEstimator(c.clock, wpm.Options{
		Window:      c.pacing.Window,
		IdleTimeout: c.pacing.IdleTimeout,
	})
	c.machine = pacing.NewMachine(pacing.Options{
		Grace:        c.pacing.Grace,
		Debounce:     c.pacing.AlarmDebounce,
		TickInterval: c.pacing.PacingInterval,
	})
	c.machine.Start(pacing.Thresholds{Minimum: cfg.MinimumWPM, Target: cfg.TargetWPM})

	c.id = uuid.NewString()
	c.cfg = cfg
	c.active = true
	c.startedAt = c.clock()
	c.endedAt = time.Time{}
	c.text = ""
	c.words = 0
	c.rate = 0
	c.peak = 0
	c.alarms = 0
	c.goalHit = false
	return c.id
}

// ID returns the current (or last) session ID.
func (c *Controller) ID() string {
	return c.id
}

// Owns reports whether id belongs to the running session. Tick handlers use it
// to drop ticks scheduled for a session that has ended.
func (c *Controller) Owns(id string) bool {
	return c.active && id != "" && id == c.id
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	return c.active
}

// Config returns the goals of the current session.
func (c *Controller) Config() model.SessionConfig {
	return c.cfg
}

// Text returns the latest text seen by the controller.
func (c *Controller) Text() string {
	return c.text
}

// Words returns the latest word count.
func (c *Controller) Words() int {
	return c.words
}

// Rate returns the rate published by the last rate tick.
func (c *Controller) Rate() int {
	return c.rate
}

// AlarmActive reports whether the below-minimum alarm is sounding.
func (c *Controller) AlarmActive() bool {
	return c.active && c.machine.State().AlarmActive
}

// GoalReached reports whether the session ended by hitting the word goal.
func (c *Controller) GoalReached() bool {
	return c.goalHit
}

// Elapsed returns the running time of the session, frozen once it ends.
func (c *Controller) Elapsed() time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}
	if !c.active {
		return c.endedAt.Sub(c.startedAt)
	}
	return c.clock().Sub(c.startedAt)
}

// TextChanged records a new full text. The sample reaches the estimator
// before this call returns. Reaching the word goal ends the session.
func (c *Controller) TextChanged(text string) []Event {
	if !c.active {
		return nil
	}
	c.text = text
	c.words = wpm.CountWords(text)
	c.estimator.Add(c.words)
	if c.cfg.WordGoal > 0 && c.words >= c.cfg.WordGoal {
		c.goalHit = true
		events := c.end()
		return append(events, Event{Kind: EventGoalReached, Rate: c.rate, Elapsed: c.Elapsed()})
	}
	return nil
}

// RateTick recomputes the displayed rate.
func (c *Controller) RateTick() []Event {
	if !c.active {
		return nil
	}
	c.rate = c.estimator.Rate()
	if c.rate > c.peak {
		c.peak = c.rate
	}
	return []Event{{Kind: EventRateUpdated, Rate: c.rate, Elapsed: c.Elapsed()}}
}

// PacingTick evaluates the pacing machine against a fresh rate.
func (c *Controller) PacingTick() []Event {
	if !c.active {
		return nil
	}
	elapsed := c.Elapsed()
	rate := c.estimator.Rate()
	res := c.machine.Evaluate(pacing.Input{Rate: rate, Elapsed: elapsed})
	var events []Event
	if res.AlarmActivated {
		c.alarms++
		events = append(events, Event{Kind: EventAlarmActivated, Rate: rate, Elapsed: elapsed})
	}
	if res.AlarmDeactivated {
		events = append(events, Event{Kind: EventAlarmDeactivated, Rate: rate, Elapsed: elapsed})
	}
	if res.TargetReached {
		events = append(events, Event{Kind: EventTargetReached, Rate: rate, Elapsed: elapsed})
	}
	return events
}

// Pace classifies the displayed rate against the session thresholds.
func (c *Controller) Pace() pacing.Pace {
	return pacing.Classify(c.rate, c.cfg.MinimumWPM, c.cfg.TargetWPM)
}

// Stop ends the session early. It returns an alarm-off event when the alarm
// was sounding so callers can silence it.
func (c *Controller) Stop() []Event {
	if !c.active {
		return nil
	}
	return c.end()
}

// Summary builds the persisted record for the current or last session.
func (c *Controller) Summary() model.WritingSession {
	ended := c.endedAt
	if c.active || ended.IsZero() {
		ended = c.clock()
	}
	duration := int(ended.Sub(c.startedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}
	timeGoal := int(c.cfg.TimeGoal / time.Second)
	return model.WritingSession{
		ID:               c.id,
		StartedAt:        c.startedAt,
		EndedAt:          ended,
		WordCount:        c.words,
		DurationSeconds:  duration,
		AverageWPM:       AverageWPM(c.words, duration),
		PeakWPM:          c.peak,
		WordGoal:         c.cfg.WordGoal,
		TimeGoalSeconds:  timeGoal,
		MinimumWPM:       c.cfg.MinimumWPM,
		TargetWPM:        c.cfg.TargetWPM,
		Alarms:           c.alarms,
		WordGoalAchieved: c.cfg.WordGoal > 0 && c.words >= c.cfg.WordGoal,
		TimeGoalAchieved: duration <= timeGoal,
		NoBackspace:      c.cfg.NoBackspace,
	}
}

// ShouldPersist reports whether the last session is worth saving. Stopped
// sessions without any words are dropped.
func (c *Controller) ShouldPersist() bool {
	if c.id == "" || c.active {
		return false
	}
	return c.goalHit || c.words > 0
}

func (c *Controller) end() []Event {
	var events []Event
	elapsed := c.Elapsed()
	if c.machine.Stop() {
		events = append(events, Event{Kind: EventAlarmDeactivated, Rate: c.rate, Elapsed: elapsed})
	}
	c.estimator.Reset()
	c.endedAt = c.clock()
	c.active = false
	return events
}

// AverageWPM is the whole-session rate: words over whole seconds.
func AverageWPM(words, seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / float64(seconds) * 60))
}
