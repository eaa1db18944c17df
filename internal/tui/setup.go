package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/flowrite/internal/model"
)

const invalidGoalsNotice = "Please enter valid goals"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Width(22)
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Width(22)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

const (
	fieldWordGoal = iota
	fieldTimeGoal
	fieldMinimum
	fieldTarget
	fieldNoBackspace
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Word goal",
	"Time goal (minutes)",
	"Minimum WPM",
	"Target WPM",
	"No backspace",
}

// fieldMinimums are the clamp floors applied when a field loses focus.
// Target may be zero to disable the celebration.
var fieldMinimums = [fieldNoBackspace]int{1, 1, 1, 0}

type setupForm struct {
	inputs      [fieldNoBackspace]textinput.Model
	noBackspace bool
	focus       int
}

func newSetupForm(cfg model.SessionConfig) setupForm {
	values := [fieldNoBackspace]int{
		cfg.WordGoal,
		int(cfg.TimeGoal / time.Minute),
		cfg.MinimumWPM,
		cfg.TargetWPM,
	}
	var f setupForm
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 6
		in.Width = 8
		in.SetValue(strconv.Itoa(values[i]))
		f.inputs[i] = in
	}
	f.noBackspace = cfg.NoBackspace
	return f
}

func (f *setupForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if f.focus < fieldNoBackspace {
		return f.inputs[f.focus].Focus()
	}
	return nil
}

func (f *setupForm) move(delta int) tea.Cmd {
	if f.focus < fieldNoBackspace {
		in := &f.inputs[f.focus]
		in.SetValue(strconv.Itoa(sanitizeNumeric(in.Value(), fieldMinimums[f.focus])))
	}
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.focusCmd()
}

func (f *setupForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.move(1)
	case "shift+tab", "up":
		return f.move(-1)
	case " ", "x":
		if f.focus == fieldNoBackspace {
			f.noBackspace = !f.noBackspace
			return nil
		}
	}
	if f.focus >= fieldNoBackspace {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// forward passes non-key messages such as cursor blinks to the focused input.
func (f *setupForm) forward(msg tea.Msg) tea.Cmd {
	if f.focus >= fieldNoBackspace {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// config validates the form. Goals below one are rejected.
func (f *setupForm) config(base model.SessionConfig) (model.SessionConfig, bool) {
	var vals [fieldNoBackspace]int
	for i, in := range f.inputs {
		v, ok := parseNumeric(in.Value())
		if !ok {
			return model.SessionConfig{}, false
		}
		vals[i] = v
	}
	if vals[fieldWordGoal] < 1 || vals[fieldTimeGoal] < 1 || vals[fieldMinimum] < 1 || vals[fieldTarget] < 0 {
		return model.SessionConfig{}, false
	}
	cfg := base
	cfg.WordGoal = vals[fieldWordGoal]
	cfg.TimeGoal = time.Duration(vals[fieldTimeGoal]) * time.Minute
	cfg.MinimumWPM = vals[fieldMinimum]
	cfg.TargetWPM = vals[fieldTarget]
	cfg.NoBackspace = f.noBackspace
	return cfg, true
}

func (f *setupForm) view(notice, previous string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("flowrite") + "\n")
	if previous != "" {
		b.WriteString(hintStyle.Render(previous) + "\n")
	}
	b.WriteString("\n")
	for i := 0; i < fieldCount; i++ {
		label := labelStyle.Render(fieldLabels[i])
		if i == f.focus {
			label = focusStyle.Render("> " + fieldLabels[i])
		}
		var value string
		if i < fieldNoBackspace {
			value = f.inputs[i].View()
		} else {
			value = "[ ]"
			if f.noBackspace {
				value = "[x]"
			}
		}
		b.WriteString(label + value + "\n")
	}
	b.WriteString("\n")
	switch notice {
	case "":
	case invalidGoalsNotice:
		b.WriteString(errorStyle.Render(notice) + "\n")
	default:
		b.WriteString(notice + "\n")
	}
	b.WriteString(hintStyle.Render("tab next · space toggle · enter start · ctrl+c quit"))
	return b.String()
}

// previousLine summarises the last saved session for the setup screen.
func previousLine(ws *model.WritingSession, now time.Time) string {
	if ws == nil {
		return ""
	}
	return fmt.Sprintf("Last session: %s words at %d WPM, %s",
		humanize.Comma(int64(ws.WordCount)), ws.AverageWPM, humanize.RelTime(ws.EndedAt, now, "ago", "from now"))
}

// sanitizeNumeric parses value and clamps it to at least minimum. Blank or
// unparsable input becomes minimum.
func sanitizeNumeric(value string, minimum int) int {
	v, ok := parseNumeric(value)
	if !ok || v < minimum {
		return minimum
	}
	return v
}

func parseNumeric(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "-" {
		return 0, false
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return v, true
}
