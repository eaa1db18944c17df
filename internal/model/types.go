// Package model defines shared data structures.
package model

import "time"

// SessionConfig defines the goals for one writing session.
type SessionConfig struct {
	WordGoal    int
	TimeGoal    time.Duration
	MinimumWPM  int
	TargetWPM   int
	NoBackspace bool
}

// PacingConfig holds the timing parameters for rate estimation and pacing.
type PacingConfig struct {
	Window         time.Duration
	IdleTimeout    time.Duration
	Grace          time.Duration
	AlarmDebounce  time.Duration
	RateInterval   time.Duration
	PacingInterval time.Duration
	ClockInterval  time.Duration
}

// SoundConfig selects which cues play and how.
type SoundConfig struct {
	Bell              bool
	Typewriter        bool
	AlarmCommand      string
	TypewriterCommand string
	ParagraphCommand  string
	TargetCommand     string
}

// HistoryFilter narrows the sessions returned for history views.
type HistoryFilter struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// WritingSession is the persisted summary of a finished session.
type WritingSession struct {
	ID               string    `yaml:"id"`
	StartedAt        time.Time `yaml:"started_at"`
	EndedAt          time.Time `yaml:"ended_at"`
	WordCount        int       `yaml:"word_count"`
	DurationSeconds  int       `yaml:"duration_seconds"`
	AverageWPM       int       `yaml:"average_wpm"`
	PeakWPM          int       `yaml:"peak_wpm"`
	WordGoal         int       `yaml:"word_goal"`
	TimeGoalSeconds  int       `yaml:"time_goal_seconds"`
	MinimumWPM       int       `yaml:"minimum_wpm"`
	TargetWPM        int       `yaml:"target_wpm"`
	Alarms           int       `yaml:"alarms"`
	WordGoalAchieved bool      `yaml:"word_goal_achieved"`
	TimeGoalAchieved bool      `yaml:"time_goal_achieved"`
	NoBackspace      bool      `yaml:"no_backspace_mode"`
}

// Duration returns the session length.
func (s WritingSession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}
