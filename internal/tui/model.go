// Package tui provides the Bubble Tea writing interface.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/pacing"
	"github.com/verte-zerg/flowrite/internal/session"
	"github.com/verte-zerg/flowrite/internal/sound"
	"github.com/verte-zerg/flowrite/internal/wpm"
)

const (
	defaultRateInterval   = 2 * time.Second
	defaultClockInterval  = time.Second
	defaultPacingInterval = 500 * time.Millisecond
	beepInterval          = 600 * time.Millisecond
	saveTimeout           = 5 * time.Second
)

// Saver persists finished sessions.
type Saver interface {
	InsertSession(ctx context.Context, ws model.WritingSession) error
}

// Options configures the writing UI.
type Options struct {
	Session   model.SessionConfig
	Pacing    model.PacingConfig
	SkipSetup bool
	Clock     wpm.Clock
	Store     Saver
	Player    *sound.Player
	Logger    *slog.Logger
	// Previous is the most recent saved session, shown on the setup screen.
	Previous *model.WritingSession
	// CopyText writes finished text to the clipboard.
	CopyText func(string) error
}

type screen int

const (
	screenSetup screen = iota
	screenWriting
	screenVictory
)

type rateTickMsg struct{ session string }

type clockTickMsg struct{ session string }

type pacingTickMsg struct{ session string }

type beepMsg struct {
	session string
	gen     int
}

type savedMsg struct {
	session string
	words   int
	err     error
}

type copiedMsg struct{ err error }

var (
	alarmStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#7F1D1D"))
	victoryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4ADE80")).Padding(1, 3)
)

// Model implements the Bubble Tea writing UI.
type Model struct {
	opts   Options
	ctrl   *session.Controller
	player *sound.Player
	logger *slog.Logger

	screen screen
	width  int
	height int

	form   setupForm
	editor textarea.Model

	rate     int
	elapsed  time.Duration
	samples  []int
	alarmGen int
	notice   string
	summary  model.WritingSession
	previous *model.WritingSession
	text     string
}

// NewModel constructs a writing TUI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	editor := textarea.New()
	editor.Placeholder = "Start typing..."
	editor.ShowLineNumbers = false
	editor.Prompt = ""
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Cursor.SetMode(cursor.CursorStatic)

	return &Model{
		opts:     opts,
		ctrl:     session.New(opts.Clock, opts.Pacing),
		player:   opts.Player,
		logger:   logger,
		form:     newSetupForm(opts.Session),
		editor:   editor,
		previous: opts.Previous,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.opts.SkipSetup {
		return m.startSession(m.opts.Session)
	}
	return m.form.focusCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeEditor()
		return m, nil
	case rateTickMsg:
		if !m.ctrl.Owns(msg.session) {
			return m, nil
		}
		return m, tea.Batch(m.handleEvents(m.ctrl.RateTick()), m.tick(m.opts.Pacing.RateInterval, defaultRateInterval, msg))
	case clockTickMsg:
		if !m.ctrl.Owns(msg.session) {
			return m, nil
		}
		m.elapsed = m.ctrl.Elapsed()
		return m, m.tick(m.opts.Pacing.ClockInterval, defaultClockInterval, msg)
	case pacingTickMsg:
		if !m.ctrl.Owns(msg.session) {
			return m, nil
		}
		return m, tea.Batch(m.handleEvents(m.ctrl.PacingTick()), m.tick(m.opts.Pacing.PacingInterval, defaultPacingInterval, msg))
	case beepMsg:
		if !m.ctrl.Owns(msg.session) || msg.gen != m.alarmGen || !m.ctrl.AlarmActive() {
			return m, nil
		}
		m.player.AlarmBeep()
		return m, m.tick(beepInterval, beepInterval, msg)
	case savedMsg:
		if msg.err != nil {
			m.logger.Error("save session failed", "session", msg.session, "err", msg.err)
			m.notice = "Could not save session; see log."
			return m, nil
		}
		m.logger.Info("session saved", "session", msg.session, "words", msg.words)
		return m, nil
	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("copy to clipboard failed", "err", msg.err)
			m.notice = "Copy failed."
		} else {
			m.notice = "Copied to clipboard."
		}
		return m, nil
	case tea.KeyMsg:
		switch m.screen {
		case screenWriting:
			return m.updateWriting(msg)
		case screenVictory:
			return m.updateVictory(msg)
		default:
			return m.updateSetup(msg)
		}
	default:
		switch m.screen {
		case screenWriting:
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		case screenSetup:
			return m, m.form.forward(msg)
		}
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenWriting:
		content = m.writingView()
	case screenVictory:
		content = m.victoryView()
	default:
		content = m.form.view(m.notice, previousLine(m.previous, m.now()))
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	view := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	if m.screen == screenWriting && m.ctrl.AlarmActive() {
		return alarmStyle.Width(m.width).Height(m.height).Render(view)
	}
	return view
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		cfg, ok := m.form.config(m.opts.Session)
		if !ok {
			m.notice = invalidGoalsNotice
			return m, nil
		}
		return m, m.startSession(cfg)
	}
	return m, m.form.update(msg)
}

func (m *Model) updateWriting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Sequence(m.stop(), tea.Quit)
	case tea.KeyCtrlS, tea.KeyEsc:
		cmd := m.stop()
		return m, tea.Batch(cmd, m.form.focusCmd())
	}
	if m.blocked(msg) {
		return m, nil
	}

	prev := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	text := m.editor.Value()
	if text == prev {
		return m, cmd
	}
	if isKeypress(msg) {
		m.player.Click()
		if strings.HasSuffix(text, "\n\n") && !strings.HasSuffix(prev, "\n\n") {
			m.player.Paragraph()
		}
	}
	m.text = text
	return m, tea.Batch(cmd, m.handleEvents(m.ctrl.TextChanged(text)))
}

func (m *Model) updateVictory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter", "n":
		m.screen = screenSetup
		m.notice = ""
		return m, m.form.focusCmd()
	case "c":
		return m, m.copyCmd(m.text)
	}
	return m, nil
}

// blocked reports keys that are swallowed while writing: deletions in
// no-backspace mode, and clipboard keys until the goal is reached.
func (m *Model) blocked(msg tea.KeyMsg) bool {
	km := m.editor.KeyMap
	if m.ctrl.Config().NoBackspace && key.Matches(msg,
		km.DeleteCharacterBackward, km.DeleteCharacterForward,
		km.DeleteWordBackward, km.DeleteWordForward,
		km.DeleteAfterCursor, km.DeleteBeforeCursor) {
		return true
	}
	if m.ctrl.GoalReached() {
		return false
	}
	if msg.Paste {
		return true
	}
	switch msg.Type {
	case tea.KeyCtrlV, tea.KeyCtrlX, tea.KeyCtrlA:
		return true
	}
	return false
}

func isKeypress(msg tea.KeyMsg) bool {
	if msg.Paste || msg.Alt {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace, tea.KeyEnter, tea.KeyBackspace:
		return true
	}
	return false
}

func (m *Model) startSession(cfg model.SessionConfig) tea.Cmd {
	id := m.ctrl.Start(cfg)
	m.screen = screenWriting
	m.editor.Reset()
	m.resizeEditor()
	m.text = ""
	m.rate = 0
	m.elapsed = 0
	m.samples = nil
	m.notice = ""
	m.logger.Info("session started",
		"session", id,
		"word_goal", cfg.WordGoal,
		"time_goal", cfg.TimeGoal,
		"minimum_wpm", cfg.MinimumWPM,
		"target_wpm", cfg.TargetWPM,
		"no_backspace", cfg.NoBackspace,
	)
	p := m.opts.Pacing
	return tea.Batch(
		m.editor.Focus(),
		m.tick(p.RateInterval, defaultRateInterval, rateTickMsg{session: id}),
		m.tick(p.ClockInterval, defaultClockInterval, clockTickMsg{session: id}),
		m.tick(p.PacingInterval, defaultPacingInterval, pacingTickMsg{session: id}),
	)
}

// stop ends the running session early and returns to setup. The returned
// command saves the session when it is worth keeping.
func (m *Model) stop() tea.Cmd {
	if !m.ctrl.Active() {
		return nil
	}
	cmd := m.handleEvents(m.ctrl.Stop())
	m.player.AlarmStop()
	m.alarmGen++
	m.editor.Blur()
	ws := m.ctrl.Summary()
	m.logger.Info("session stopped", "session", ws.ID, "words", ws.WordCount, "duration_seconds", ws.DurationSeconds)
	m.screen = screenSetup
	if !m.ctrl.ShouldPersist() {
		m.notice = "Nothing written; session discarded."
		return cmd
	}
	m.notice = fmt.Sprintf("Saved %d words in %s.", ws.WordCount, formatClock(time.Duration(ws.DurationSeconds)*time.Second))
	m.previous = &ws
	return tea.Batch(cmd, m.saveCmd(ws))
}

func (m *Model) finish() tea.Cmd {
	m.player.AlarmStop()
	m.alarmGen++
	m.editor.Blur()
	m.summary = m.ctrl.Summary()
	m.previous = &m.summary
	m.elapsed = m.ctrl.Elapsed()
	m.screen = screenVictory
	m.notice = ""
	m.logger.Info("word goal reached", "session", m.summary.ID, "words", m.summary.WordCount, "duration_seconds", m.summary.DurationSeconds)
	return m.saveCmd(m.summary)
}

func (m *Model) now() time.Time {
	if m.opts.Clock == nil {
		return time.Now()
	}
	return m.opts.Clock()
}

func (m *Model) handleEvents(events []session.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range events {
		switch ev.Kind {
		case session.EventRateUpdated:
			m.rate = ev.Rate
			m.samples = pushSample(m.samples, ev.Rate)
		case session.EventAlarmActivated:
			m.logger.Warn("pace below minimum", "session", m.ctrl.ID(), "rate", ev.Rate, "elapsed", ev.Elapsed)
			m.player.AlarmStart()
			m.player.AlarmBeep()
			m.alarmGen++
			cmds = append(cmds, m.tick(beepInterval, beepInterval, beepMsg{session: m.ctrl.ID(), gen: m.alarmGen}))
		case session.EventAlarmDeactivated:
			m.logger.Info("pace recovered", "session", m.ctrl.ID(), "rate", ev.Rate)
			m.player.AlarmStop()
			m.alarmGen++
		case session.EventTargetReached:
			m.logger.Info("target pace reached", "session", m.ctrl.ID(), "rate", ev.Rate)
			m.player.Target()
		case session.EventGoalReached:
			cmds = append(cmds, m.finish())
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) tick(d, fallback time.Duration, msg tea.Msg) tea.Cmd {
	if d <= 0 {
		d = fallback
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

func (m *Model) saveCmd(ws model.WritingSession) tea.Cmd {
	st := m.opts.Store
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return savedMsg{session: ws.ID, words: ws.WordCount, err: st.InsertSession(ctx, ws)}
	}
}

func (m *Model) copyCmd(text string) tea.Cmd {
	copyText := m.opts.CopyText
	if copyText == nil {
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: copyText(text)}
	}
}

func (m *Model) resizeEditor() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.editor.SetWidth(max(int(float64(m.width)*0.70), 20))
	m.editor.SetHeight(max(m.height-6, 3))
}

func (m *Model) writingView() string {
	cfg := m.ctrl.Config()
	bar := renderStatsBar(barStats{
		words:    m.ctrl.Words(),
		goal:     cfg.WordGoal,
		elapsed:  m.elapsed,
		timeGoal: cfg.TimeGoal,
		rate:     m.rate,
		pace:     pacing.Classify(m.rate, cfg.MinimumWPM, cfg.TargetWPM),
		rhythm:   pacing.Rhythm(m.samples),
	})
	strip := renderBars(buildBars(m.samples, cfg.MinimumWPM, cfg.TargetWPM), maxBars)
	hint := hintStyle.Render("ctrl+s stop · ctrl+c quit")
	if cfg.NoBackspace {
		hint = hintStyle.Render("no backspace · ctrl+s stop · ctrl+c quit")
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, strip, "", m.editor.View(), hint)
}

func (m *Model) victoryView() string {
	ws := m.summary
	check := func(ok bool) string {
		if ok {
			return successStyle.Render("✓")
		}
		return errorStyle.Render("✗")
	}
	lines := []string{
		titleStyle.Render("Goal reached!"),
		"",
		fmt.Sprintf("Words     %d / %d %s", ws.WordCount, ws.WordGoal, check(ws.WordGoalAchieved)),
		fmt.Sprintf("Time      %s / %s %s", formatClock(time.Duration(ws.DurationSeconds)*time.Second), formatClock(time.Duration(ws.TimeGoalSeconds)*time.Second), check(ws.TimeGoalAchieved)),
		fmt.Sprintf("Avg WPM   %d", ws.AverageWPM),
		fmt.Sprintf("Peak WPM  %d", ws.PeakWPM),
		fmt.Sprintf("Alarms    %d", ws.Alarms),
		"",
	}
	if m.notice != "" {
		lines = append(lines, m.notice)
	}
	lines = append(lines, hintStyle.Render("c copy text · enter new session · q quit"))
	return victoryStyle.Render(strings.Join(lines, "\n"))
}
