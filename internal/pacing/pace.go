package pacing

// Pace classifies a rate against the session thresholds.
type Pace int

const (
	PaceIdle Pace = iota
	PaceCritical
	PaceBehind
	PaceOnPace
	PaceAhead
)

func (p Pace) String() string {
	switch p {
	case PaceCritical:
		return "critical"
	case PaceBehind:
		return "behind"
	case PaceOnPace:
		return "on pace"
	case PaceAhead:
		return "ahead"
	default:
		return "idle"
	}
}

// Classify buckets rate relative to the minimum and target. The band between
// minimum and target is split in half: the lower half is behind, the upper
// half is on pace.
func Classify(rate, minimum, target int) Pace {
	if rate <= 0 {
		return PaceIdle
	}
	if target < minimum {
		target = minimum
	}
	switch {
	case rate < minimum:
		return PaceCritical
	case float64(rate) < float64(minimum)+float64(target-minimum)*0.5:
		return PaceBehind
	case rate < target:
		return PaceOnPace
	default:
		return PaceAhead
	}
}
