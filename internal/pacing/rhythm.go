package pacing

import "math"

const (
	rhythmSampleCount = 12
	rhythmMinActive   = 4
)

// RhythmStatus describes how steady recent rate readings are.
type RhythmStatus int

const (
	RhythmWarmingUp RhythmStatus = iota
	RhythmLockedIn
	RhythmStable
	RhythmVariable
	RhythmErratic
)

func (r RhythmStatus) String() string {
	switch r {
	case RhythmLockedIn:
		return "locked in"
	case RhythmStable:
		return "stable"
	case RhythmVariable:
		return "variable"
	case RhythmErratic:
		return "erratic"
	default:
		return "warming up"
	}
}

// Rhythm classifies the most recent rate readings by their coefficient of
// variation. Zero readings (pauses) are ignored.
func Rhythm(samples []int) RhythmStatus {
	if len(samples) > rhythmSampleCount {
		samples = samples[len(samples)-rhythmSampleCount:]
	}
	active := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s > 0 {
			active = append(active, float64(s))
		}
	}
	if len(active) < rhythmMinActive {
		return RhythmWarmingUp
	}
	var sum float64
	for _, v := range active {
		sum += v
	}
	mean := sum / float64(len(active))
	var variance float64
	for _, v := range active {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(active))
	cv := math.Sqrt(variance) / mean

	switch {
	case cv < 0.12:
		return RhythmLockedIn
	case cv < 0.25:
		return RhythmStable
	case cv < 0.4:
		return RhythmVariable
	default:
		return RhythmErratic
	}
}
