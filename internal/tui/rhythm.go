package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/flowrite/internal/pacing"
)

const maxBars = 30

var barLevels = []rune("▁▂▃▄▅▆▇█")

var paceStyles = map[pacing.Pace]lipgloss.Style{
	pacing.PaceIdle:     lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
	pacing.PaceCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	pacing.PaceBehind:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")),
	pacing.PaceOnPace:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")),
	pacing.PaceAhead:    lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
}

type barCell struct {
	s     string
	width int
}

// pushSample records a displayed rate for the rhythm strip. Repeated values
// are skipped so a steady reading does not flood the strip.
func pushSample(samples []int, rate int) []int {
	if n := len(samples); n > 0 && samples[n-1] == rate {
		return samples
	}
	samples = append(samples, rate)
	if len(samples) > maxBars {
		samples = samples[len(samples)-maxBars:]
	}
	return samples
}

func barScale(samples []int, target int) float64 {
	scale := math.Max(float64(target)*1.4, 40)
	for _, s := range samples {
		scale = math.Max(scale, float64(s))
	}
	return scale
}

func barLevel(rate int, scale float64) rune {
	if rate <= 0 || scale <= 0 {
		return barLevels[0]
	}
	idx := int(math.Ceil(float64(rate)/scale*float64(len(barLevels)))) - 1
	idx = max(0, min(idx, len(barLevels)-1))
	return barLevels[idx]
}

func buildBars(samples []int, minimum, target int) []barCell {
	scale := barScale(samples, target)
	out := make([]barCell, 0, len(samples))
	for _, rate := range samples {
		r := barLevel(rate, scale)
		style := paceStyles[pacing.Classify(rate, minimum, target)]
		out = append(out, barCell{
			s:     style.Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

// renderBars keeps the newest cells that fit in width.
func renderBars(cells []barCell, width int) string {
	start := 0
	if width > 0 {
		used := 0
		start = len(cells)
		for start > 0 && used+cells[start-1].width <= width {
			start--
			used += cells[start].width
		}
	}
	var b strings.Builder
	for _, c := range cells[start:] {
		b.WriteString(c.s)
	}
	return b.String()
}
