package wpm

import (
	"math"
	"time"
)

const (
	// DefaultWindow is the trailing duration of samples used for the rate.
	DefaultWindow = 10 * time.Second
	// DefaultIdleTimeout is how long after the newest sample a rate is still reported.
	DefaultIdleTimeout = 5 * time.Second
)

// Clock returns the current time.
type Clock func() time.Time

// Sample is a cumulative word count observed at a point in time.
type Sample struct {
	At    time.Time
	Words int
}

// Options tunes an Estimator. Zero values fall back to the defaults.
type Options struct {
	Window      time.Duration
	IdleTimeout time.Duration
}

// Estimator tracks a sliding window of word-count samples and derives an
// instantaneous rate from it. It is not safe for concurrent use.
type Estimator struct {
	clock       Clock
	window      time.Duration
	idleTimeout time.Duration
	samples     []Sample
}

// NewEstimator returns an empty estimator. A nil clock uses time.Now.
func NewEstimator(clock Clock, opts Options) *Estimator {
	if clock == nil {
		clock = time.Now
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Estimator{
		clock:       clock,
		window:      opts.Window,
		idleTimeout: opts.IdleTimeout,
	}
}

// Add records the cumulative word count at the current time.
func (e *Estimator) Add(words int) {
	now := e.clock()
	e.samples = append(e.samples, Sample{At: now, Words: words})
	e.evict(now)
}

// Rate returns the current words-per-minute estimate, or 0 when there is not
// enough recent data.
func (e *Estimator) Rate() int {
	now := e.clock()
	e.evict(now)
	if len(e.samples) < 2 {
		return 0
	}
	newest := e.samples[len(e.samples)-1]
	if now.Sub(newest.At) > e.idleTimeout {
		return 0
	}
	oldest := e.samples[0]
	span := newest.At.Sub(oldest.At).Seconds()
	if span <= 0 {
		return 0
	}
	perSecond := float64(newest.Words-oldest.Words) / span
	rate := int(math.Round(perSecond * 60))
	if rate < 0 {
		return 0
	}
	return rate
}

// Len reports the number of samples currently in the window.
func (e *Estimator) Len() int {
	return len(e.samples)
}

// Reset drops all samples.
func (e *Estimator) Reset() {
	e.samples = nil
}

// evict keeps only samples newer than now-window. Samples are in timestamp
// order, so the retained ones form a suffix.
func (e *Estimator) evict(now time.Time) {
	cutoff := now.Add(-e.window)
	idx := 0
	for idx < len(e.samples) && !e.samples[idx].At.After(cutoff) {
		idx++
	}
	if idx == 0 {
		return
	}
	e.samples = append(e.samples[:0], e.samples[idx:]...)
}
