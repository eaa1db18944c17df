package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/flowrite/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type memStore struct {
	mu       sync.Mutex
	sessions []model.WritingSession
	err      error
}

func (s *memStore) InsertSession(_ context.Context, ws model.WritingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sessions = append(s.sessions, ws)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func defaultSession() model.SessionConfig {
	return model.SessionConfig{WordGoal: 500, TimeGoal: 30 * time.Minute, MinimumWPM: 30, TargetWPM: 60}
}

func newTestModel(t *testing.T, cfg model.SessionConfig, skipSetup bool) (*Model, *fakeClock, *memStore) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	st := &memStore{}
	m := NewModel(Options{
		Session: cfg,
		Pacing: model.PacingConfig{
			Window:         10 * time.Second,
			IdleTimeout:    5 * time.Second,
			Grace:          10 * time.Second,
			AlarmDebounce:  1500 * time.Millisecond,
			RateInterval:   2 * time.Second,
			PacingInterval: 500 * time.Millisecond,
			ClockInterval:  time.Second,
		},
		SkipSetup: skipSetup,
		Clock:     clock.Now,
		Store:     st,
	})
	m.Init()
	return m, clock, st
}

// drain runs cmd and any batched commands, skipping ones that block (timers).
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func typeText(m *Model, text string) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range text {
		var msg tea.KeyMsg
		switch r {
		case ' ':
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case '\n':
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		_, cmd := m.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func TestSetupRejectsInvalidGoals(t *testing.T) {
	cfg := defaultSession()
	cfg.WordGoal = 0
	m, _, _ := newTestModel(t, cfg, false)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenSetup {
		t.Fatalf("expected setup screen, got %v", m.screen)
	}
	if m.notice != invalidGoalsNotice {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestSetupSanitizesOnFocusChange(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), false)
	m.form.inputs[fieldWordGoal].SetValue("-5")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.form.inputs[fieldWordGoal].Value(); got != "1" {
		t.Fatalf("expected clamped value 1, got %q", got)
	}
	if m.form.focus != fieldTimeGoal {
		t.Fatalf("expected focus on time goal, got %d", m.form.focus)
	}
}

func TestSetupStartsSession(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), false)
	for i := 0; i < fieldNoBackspace; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.screen != screenWriting || !m.ctrl.Active() {
		t.Fatalf("expected running session")
	}
	got := m.ctrl.Config()
	if got.WordGoal != 500 || got.TimeGoal != 30*time.Minute || !got.NoBackspace {
		t.Fatalf("unexpected session config %+v", got)
	}
}

func TestTypingCountsWords(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), true)
	typeText(m, "hello brave\nworld")
	if got := m.ctrl.Words(); got != 3 {
		t.Fatalf("expected 3 words, got %d", got)
	}
}

func TestNoBackspaceSwallowsDeletion(t *testing.T) {
	cfg := defaultSession()
	cfg.NoBackspace = true
	m, _, _ := newTestModel(t, cfg, true)
	typeText(m, "ab")

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.editor.Value(); got != "ab" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestBackspaceAllowedByDefault(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), true)
	typeText(m, "ab")

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.editor.Value(); got != "a" {
		t.Fatalf("expected deletion, got %q", got)
	}
}

func TestPasteBlockedBeforeGoal(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), true)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pasted words"), Paste: true})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	if got := m.editor.Value(); got != "" {
		t.Fatalf("expected paste to be blocked, got %q", got)
	}
	if m.ctrl.Words() != 0 {
		t.Fatalf("expected no words")
	}
}

func TestStaleTicksAreDropped(t *testing.T) {
	m, _, _ := newTestModel(t, defaultSession(), true)
	id := m.ctrl.ID()

	if _, cmd := m.Update(rateTickMsg{session: "stale"}); cmd != nil {
		t.Fatalf("expected stale rate tick to be dropped")
	}
	if _, cmd := m.Update(rateTickMsg{session: id}); cmd == nil {
		t.Fatalf("expected live rate tick to reschedule")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	for _, msg := range []tea.Msg{rateTickMsg{session: id}, clockTickMsg{session: id}, pacingTickMsg{session: id}} {
		if _, cmd := m.Update(msg); cmd != nil {
			t.Fatalf("expected %T after stop to be dropped", msg)
		}
	}
}

func TestClockTickUpdatesElapsed(t *testing.T) {
	m, clock, _ := newTestModel(t, defaultSession(), true)
	clock.Advance(65 * time.Second)
	m.Update(clockTickMsg{session: m.ctrl.ID()})
	if m.elapsed != 65*time.Second {
		t.Fatalf("unexpected elapsed %s", m.elapsed)
	}
	if !strings.Contains(m.writingView(), "1:05 / 30:00") {
		t.Fatalf("expected clock in view:\n%s", m.writingView())
	}
}

func TestAlarmLifecycle(t *testing.T) {
	m, clock, _ := newTestModel(t, defaultSession(), true)
	id := m.ctrl.ID()
	clock.Advance(10 * time.Second)

	for i := 0; i < 3; i++ {
		m.Update(pacingTickMsg{session: id})
		clock.Advance(500 * time.Millisecond)
	}
	if !m.ctrl.AlarmActive() {
		t.Fatalf("expected alarm after three slow ticks")
	}
	gen := m.alarmGen
	if _, cmd := m.Update(beepMsg{session: id, gen: gen}); cmd == nil {
		t.Fatalf("expected beep loop to continue")
	}
	if _, cmd := m.Update(beepMsg{session: id, gen: gen - 1}); cmd != nil {
		t.Fatalf("expected old beep generation to be dropped")
	}

	typeText(m, "a")
	clock.Advance(time.Second)
	typeText(m, "a b c d")
	m.Update(pacingTickMsg{session: id})
	if m.ctrl.AlarmActive() {
		t.Fatalf("expected alarm to clear")
	}
	if _, cmd := m.Update(beepMsg{session: id, gen: m.alarmGen}); cmd != nil {
		t.Fatalf("expected beep loop to stop with the alarm")
	}
}

func TestRateTickFeedsRhythm(t *testing.T) {
	m, clock, _ := newTestModel(t, defaultSession(), true)
	typeText(m, "a")
	clock.Advance(2 * time.Second)
	typeText(m, " b c")
	m.Update(rateTickMsg{session: m.ctrl.ID()})
	if m.rate != 60 {
		t.Fatalf("expected 60 wpm, got %d", m.rate)
	}
	if len(m.samples) != 1 || m.samples[0] != 60 {
		t.Fatalf("unexpected samples %v", m.samples)
	}
}

func TestStopSavesAndReturnsToSetup(t *testing.T) {
	m, clock, st := newTestModel(t, defaultSession(), true)
	typeText(m, "hello")
	clock.Advance(30 * time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.screen != screenSetup {
		t.Fatalf("expected setup screen after stop")
	}
	if !strings.HasPrefix(m.notice, "Saved 1 words") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
	if st.count() != 1 {
		t.Fatalf("expected one saved session, got %d", st.count())
	}
}

func TestStopWithoutWordsDiscards(t *testing.T) {
	m, _, st := newTestModel(t, defaultSession(), true)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(cmd)
	if st.count() != 0 {
		t.Fatalf("expected nothing saved")
	}
	if !strings.Contains(m.notice, "discarded") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestGoalShowsVictoryAndCopies(t *testing.T) {
	cfg := defaultSession()
	cfg.WordGoal = 2
	m, clock, st := newTestModel(t, cfg, true)
	var copied string
	m.opts.CopyText = func(s string) error {
		copied = s
		return nil
	}

	typeText(m, "a ")
	clock.Advance(time.Minute)
	cmd := typeText(m, "b")
	if m.screen != screenVictory {
		t.Fatalf("expected victory screen")
	}
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
	if st.count() != 1 || !st.sessions[0].WordGoalAchieved {
		t.Fatalf("expected goal session saved: %+v", st.sessions)
	}
	if !strings.Contains(m.victoryView(), "Words     2 / 2") {
		t.Fatalf("unexpected victory view:\n%s", m.victoryView())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
	if copied != "a b" || m.notice != "Copied to clipboard." {
		t.Fatalf("unexpected copy result %q / %q", copied, m.notice)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenSetup {
		t.Fatalf("expected setup after victory")
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	m, _, st := newTestModel(t, defaultSession(), true)
	st.err = errors.New("disk full")
	typeText(m, "words here")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
	if !strings.Contains(m.notice, "Could not save") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPreviousLine(t *testing.T) {
	if got := previousLine(nil, time.Now()); got != "" {
		t.Fatalf("expected empty line, got %q", got)
	}
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	ws := &model.WritingSession{WordCount: 1234, AverageWPM: 41, EndedAt: now.Add(-2 * time.Hour)}
	want := "Last session: 1,234 words at 41 WPM, 2 hours ago"
	if got := previousLine(ws, now); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStopRecordsPreviousSession(t *testing.T) {
	m, clock, _ := newTestModel(t, defaultSession(), true)
	if m.previous != nil {
		t.Fatalf("expected no previous session")
	}
	typeText(m, "hello")
	clock.Advance(30 * time.Second)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.previous == nil || m.previous.WordCount != 1 {
		t.Fatalf("unexpected previous session %+v", m.previous)
	}
	if !strings.Contains(m.View(), "Last session: 1 words") {
		t.Fatalf("setup view missing previous session:\n%s", m.View())
	}
}
