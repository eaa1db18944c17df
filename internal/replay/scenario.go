// Package replay runs a scripted writing session through the session
// controller on a simulated clock and records the resulting event timeline.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/flowrite/internal/model"
)

// Scenario is a timed script of text edits.
type Scenario struct {
	WordGoal   int            `yaml:"word-goal"`
	TimeGoal   time.Duration  `yaml:"time-goal"`
	MinimumWPM int            `yaml:"minimum-wpm"`
	TargetWPM  int            `yaml:"target-wpm"`
	Duration   time.Duration  `yaml:"duration"`
	Pacing     PacingOverride `yaml:"pacing"`
	Steps      []Step         `yaml:"events"`
}

// PacingOverride replaces pacing parameters for the run. Zero keeps the
// configured value.
type PacingOverride struct {
	Window         time.Duration `yaml:"window"`
	IdleTimeout    time.Duration `yaml:"idle-timeout"`
	Grace          time.Duration `yaml:"grace"`
	AlarmDebounce  time.Duration `yaml:"alarm-debounce"`
	RateInterval   time.Duration `yaml:"rate-interval"`
	PacingInterval time.Duration `yaml:"pacing-interval"`
}

// Step is one text change. Text replaces the whole buffer; Append adds to it.
type Step struct {
	At     time.Duration `yaml:"at"`
	Text   *string       `yaml:"text"`
	Append string        `yaml:"append"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool {
		return sc.Steps[i].At < sc.Steps[j].At
	})
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Duration <= 0 {
		return errors.New("scenario duration must be positive")
	}
	if sc.MinimumWPM < 0 || sc.TargetWPM < 0 || sc.WordGoal < 0 || sc.TimeGoal < 0 {
		return errors.New("scenario goals must not be negative")
	}
	for i, step := range sc.Steps {
		if step.At < 0 {
			return fmt.Errorf("event %d: negative offset", i+1)
		}
		if step.At > sc.Duration {
			return fmt.Errorf("event %d: offset %s is past duration %s", i+1, step.At, sc.Duration)
		}
		if step.Text != nil && step.Append != "" {
			return fmt.Errorf("event %d: text and append are exclusive", i+1)
		}
	}
	return nil
}

// SessionConfig returns the goals the scenario runs with.
func (sc *Scenario) SessionConfig() model.SessionConfig {
	return model.SessionConfig{
		WordGoal:   sc.WordGoal,
		TimeGoal:   sc.TimeGoal,
		MinimumWPM: sc.MinimumWPM,
		TargetWPM:  sc.TargetWPM,
	}
}

// Apply overlays the scenario's pacing overrides onto base.
func (o PacingOverride) Apply(base model.PacingConfig) model.PacingConfig {
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&base.Window, o.Window)
	set(&base.IdleTimeout, o.IdleTimeout)
	set(&base.Grace, o.Grace)
	set(&base.AlarmDebounce, o.AlarmDebounce)
	set(&base.RateInterval, o.RateInterval)
	set(&base.PacingInterval, o.PacingInterval)
	return base
}
