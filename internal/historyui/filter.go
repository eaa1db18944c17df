package historyui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flowrite/internal/model"
)

const dateLayout = "2006-01-02"

const (
	fieldSince = iota
	fieldLast
	fieldWindow
)

// filterForm edits the history filter in place of the body.
type filterForm struct {
	open   bool
	inputs []textinput.Model
	focus  int
	err    string
}

type filterResult int

const (
	filterPending filterResult = iota
	filterApplied
	filterCancelled
)

func newFilterForm() filterForm {
	prompts := []string{"Since (YYYY-MM-DD): ", "Last: ", "Curve window: "}
	f := filterForm{inputs: make([]textinput.Model, len(prompts))}
	for i, p := range prompts {
		in := textinput.New()
		in.Prompt = p
		in.CharLimit = 16
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	return f
}

// show fills the inputs from the active filter and focuses the first field.
func (f *filterForm) show(filter model.HistoryFilter) tea.Cmd {
	f.open = true
	f.err = ""
	since := ""
	if filter.Since != nil {
		since = filter.Since.Format(dateLayout)
	}
	last := ""
	if filter.Last > 0 {
		last = strconv.Itoa(filter.Last)
	}
	f.inputs[fieldSince].SetValue(since)
	f.inputs[fieldLast].SetValue(last)
	f.inputs[fieldWindow].SetValue(strconv.Itoa(filter.CurveWindow))
	return f.focusOn(fieldSince)
}

func (f *filterForm) focusOn(idx int) tea.Cmd {
	n := len(f.inputs)
	f.focus = (idx%n + n) % n
	var cmd tea.Cmd
	for i := range f.inputs {
		if i != f.focus {
			f.inputs[i].Blur()
			continue
		}
		cmd = f.inputs[i].Focus()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

// update handles a key while the form is open. On filterApplied the returned
// filter replaces the active one.
func (f *filterForm) update(msg tea.KeyMsg, current model.HistoryFilter) (filterResult, model.HistoryFilter, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.open = false
		f.err = ""
		return filterCancelled, current, nil
	case tea.KeyEnter:
		next, err := f.parse(current)
		if err != nil {
			f.err = err.Error()
			return filterPending, current, nil
		}
		f.open = false
		f.err = ""
		return filterApplied, next, nil
	case tea.KeyTab, tea.KeyDown:
		return filterPending, current, f.focusOn(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return filterPending, current, f.focusOn(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return filterPending, current, cmd
}

func (f *filterForm) parse(base model.HistoryFilter) (model.HistoryFilter, error) {
	out := base
	out.Since = nil
	if raw := strings.TrimSpace(f.inputs[fieldSince].Value()); raw != "" {
		since, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return base, errors.New("invalid since date (expected YYYY-MM-DD)")
		}
		out.Since = &since
	}
	out.Last = 0
	if raw := strings.TrimSpace(f.inputs[fieldLast].Value()); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			return base, errors.New("last must be a non-negative integer")
		}
		out.Last = last
	}
	window, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldWindow].Value()))
	if err != nil || window < 1 {
		return base, errors.New("curve window must be a positive integer")
	}
	out.CurveWindow = window
	return out, nil
}

func (f *filterForm) view() string {
	lines := make([]string, 0, len(f.inputs)+2)
	lines = append(lines, "Filter (enter to apply, esc to cancel)")
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
