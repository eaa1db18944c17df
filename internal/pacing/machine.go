// Package pacing turns a stream of rate readings into alarm and target events.
package pacing

import "time"

const (
	// DefaultGrace is how long after session start evaluation is suppressed.
	DefaultGrace = 10 * time.Second
	// DefaultDebounce is how long the rate must stay below the minimum before
	// the alarm fires.
	DefaultDebounce = 1500 * time.Millisecond
	// DefaultTickInterval is the evaluation cadence; each slow tick adds this
	// much to the below-threshold time.
	DefaultTickInterval = 500 * time.Millisecond
)

// Phase describes where a session is in the evaluation lifecycle.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseGrace
	PhaseArmed
)

func (p Phase) String() string {
	switch p {
	case PhaseGrace:
		return "grace"
	case PhaseArmed:
		return "armed"
	default:
		return "stopped"
	}
}

// Options tunes a Machine. Zero values fall back to the defaults.
type Options struct {
	Grace        time.Duration
	Debounce     time.Duration
	TickInterval time.Duration
}

// Thresholds are the per-session rate limits in words per minute. A value
// <= 0 disables the corresponding check.
type Thresholds struct {
	Minimum int
	Target  int
}

// Input is one evaluation tick.
type Input struct {
	Rate    int
	Elapsed time.Duration
}

// Result lists the transitions produced by one tick.
type Result struct {
	AlarmActivated   bool
	AlarmDeactivated bool
	TargetReached    bool
}

// Any reports whether the tick produced a transition.
func (r Result) Any() bool {
	return r.AlarmActivated || r.AlarmDeactivated || r.TargetReached
}

// State is a snapshot of the per-session pacing state.
type State struct {
	BelowFor      time.Duration
	AlarmActive   bool
	TargetLatched bool
}

// Machine debounces the below-minimum alarm and latches the target event.
// It is owned by a single session and is not safe for concurrent use.
type Machine struct {
	opts       Options
	thresholds Thresholds
	running    bool
	state      State
}

// NewMachine returns a stopped machine.
func NewMachine(opts Options) *Machine {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Machine{opts: opts}
}

// Start resets the state and begins a session with the given thresholds.
func (m *Machine) Start(th Thresholds) {
	m.Reset()
	m.thresholds = th
	m.running = true
}

// Reset returns all accumulators and latches to their initial values.
func (m *Machine) Reset() {
	m.state = State{}
	m.running = false
}

// Stop ends the session. It reports whether the alarm was active, in which
// case the caller must silence it.
func (m *Machine) Stop() bool {
	wasActive := m.state.AlarmActive
	m.Reset()
	return wasActive
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	return m.state
}

// Phase reports the lifecycle phase for the given elapsed time.
func (m *Machine) Phase(elapsed time.Duration) Phase {
	if !m.running {
		return PhaseStopped
	}
	if elapsed < m.opts.Grace {
		return PhaseGrace
	}
	return PhaseArmed
}

// Evaluate applies one tick. Ticks during grace or without a running session
// are ignored.
func (m *Machine) Evaluate(in Input) Result {
	var res Result
	if m.Phase(in.Elapsed) != PhaseArmed {
		return res
	}
	rate := in.Rate
	if rate < 0 {
		rate = 0
	}

	if m.thresholds.Minimum > 0 {
		if rate < m.thresholds.Minimum {
			m.state.BelowFor += m.opts.TickInterval
			if m.state.BelowFor >= m.opts.Debounce && !m.state.AlarmActive {
				m.state.AlarmActive = true
				res.AlarmActivated = true
			}
		} else {
			m.state.BelowFor = 0
			if m.state.AlarmActive {
				m.state.AlarmActive = false
				res.AlarmDeactivated = true
			}
		}
	}

	if m.thresholds.Target > 0 {
		if rate >= m.thresholds.Target {
			if !m.state.TargetLatched {
				m.state.TargetLatched = true
				res.TargetReached = true
			}
		} else {
			m.state.TargetLatched = false
		}
	}
	return res
}
