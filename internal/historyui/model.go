// Package historyui provides the Bubble Tea session history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/stats"
)

const (
	tabOverview = iota
	tabSessions
)

const plotHeight = 8

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			Foreground(lipgloss.Color("#B0B0B0")).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	selectedTabStyle = tabStyle.
				Bold(true).
				Foreground(lipgloss.Color("#F0F0F0")).
				BorderForeground(lipgloss.Color("#4ADE80"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Width(18).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

var tabNames = [...]string{tabOverview: "Overview", tabSessions: "Sessions"}

// Model implements the Bubble Tea history UI.
type Model struct {
	store  stats.SessionLister
	filter model.HistoryFilter
	now    func() time.Time

	report  stats.Report
	loadErr string

	tab      int
	overview viewport.Model
	sessions table.Model
	form     filterForm

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(st stats.SessionLister, filter model.HistoryFilter) *Model {
	if filter.CurveWindow <= 0 {
		filter.CurveWindow = 1
	}
	m := &Model{
		store:    st,
		filter:   filter,
		now:      time.Now,
		overview: viewport.New(0, 0),
		sessions: newSessionTable(),
		form:     newFilterForm(),
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.drawOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form.open {
			result, filter, cmd := m.form.update(msg, m.filter)
			if result == filterApplied {
				m.filter = filter
				m.reload()
				m.resize()
			}
			return m, cmd
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h", "right", "l", "tab":
			m.switchTab()
			return m, tea.ClearScreen
		case "=", "-":
			if msg.String() == "=" {
				m.filter.CurveWindow = nextCurveWindow(m.filter.CurveWindow)
			} else {
				m.filter.CurveWindow = prevCurveWindow(m.filter.CurveWindow)
			}
			m.reload()
			return m, nil
		case "/":
			return m, m.form.show(m.filter)
		case "g", "home":
			m.overview.GotoTop()
			m.sessions.GotoTop()
			return m, nil
		case "G", "end":
			m.overview.GotoBottom()
			m.sessions.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		if m.tab == tabSessions {
			m.sessions, cmd = m.sessions.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top, middle, bottom := m.heights()
	return strings.Join([]string{
		fitLines(m.tabsView()+"\n"+m.filterLine(), m.width, top),
		fitLines(m.bodyView(), m.width, middle),
		fitLines(m.helpView(), m.width, bottom),
	}, "\n")
}

func (m *Model) switchTab() {
	m.tab = (m.tab + 1) % len(tabNames)
	if m.tab == tabSessions {
		m.sessions.Focus()
		return
	}
	m.sessions.Blur()
}

func newSessionTable() table.Model {
	cols := make([]table.Column, len(stats.SessionHeaders))
	widths := []int{16, 7, 10, 7, 5, 6, 4}
	for i, title := range stats.SessionHeaders {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	t := table.New(table.WithColumns(cols))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

// heights splits the screen into tabs+filter line, body and help.
func (m *Model) heights() (top, middle, bottom int) {
	top = lipgloss.Height(selectedTabStyle.Render(tabNames[0])) + 1
	bottom = 1
	if !m.form.open && m.loadErr != "" {
		bottom = 2
	}
	return top, max(m.height-top-bottom, 1), bottom
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, middle, _ := m.heights()
	m.overview.Width = m.width
	m.overview.Height = middle
	m.sessions.SetWidth(m.width)
	m.sessions.SetHeight(max(middle-1, 1))
	m.form.setWidth(m.width)
}

// reload queries the store with the active filter and redraws both tabs.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.filter)
	if err != nil {
		m.loadErr = err.Error()
		m.overview.SetContent("Failed to load history.")
		return
	}
	m.loadErr = ""
	m.report = report
	rows := stats.SessionRows(report.Sessions)
	newestFirst := make([]table.Row, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, table.Row(rows[i]))
	}
	m.sessions.SetRows(newestFirst)
	m.drawOverview()
}

func (m *Model) drawOverview() {
	if m.loadErr != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, width, m.now()))
}

func renderOverview(report stats.Report, width int, now time.Time) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	cards := renderSummaryCards(report, width, now)
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, report.Sessions, report.Window, width, plotHeight, true); err != nil {
		return cards + "\n\n" + fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

// renderSummaryCards lays the totals out as three cards per row, or one per
// line on narrow terminals.
func renderSummaryCards(report stats.Report, width int, now time.Time) string {
	sum := report.Summary
	latest := report.Sessions[len(report.Sessions)-1]
	cards := []string{
		card("Total Words", humanize.Comma(int64(sum.TotalWords))),
		card("Total Time", stats.FormatDuration(sum.TotalSeconds)),
		card("Avg WPM", strconv.Itoa(sum.AverageWPM)),
		card("Goals", fmt.Sprintf("%d/%d", sum.GoalsAchieved, sum.Sessions)),
		card("Best WPM", strconv.Itoa(sum.BestWPM)),
		card("Last Session", humanize.RelTime(latest.EndedAt, now, "ago", "from now")),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	var rows []string
	for i := 0; i < len(cards); i += 3 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:min(i+3, len(cards))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func (m *Model) tabsView() string {
	rendered := make([]string, len(tabNames))
	for i, name := range tabNames {
		if i == m.tab {
			rendered[i] = selectedTabStyle.Render(name)
			continue
		}
		rendered[i] = tabStyle.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) filterLine() string {
	since, last := "any", "all"
	if m.filter.Since != nil {
		since = m.filter.Since.Format(dateLayout)
	}
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	line := fmt.Sprintf("since %s · last %s · window %d", since, last, m.filter.CurveWindow)
	return mutedStyle.Render(truncateLine(line, m.width))
}

func (m *Model) helpView() string {
	if m.form.open {
		return mutedStyle.Render("tab next field · enter apply · esc cancel")
	}
	help := mutedStyle.Render("tab switch · ↑/↓ scroll · -/= window · / filter · q quit")
	if m.loadErr != "" {
		help += "\n" + errorStyle.Render(m.loadErr)
	}
	return help
}

func (m *Model) bodyView() string {
	switch {
	case m.form.open:
		return m.form.view()
	case m.tab == tabSessions && len(m.report.Sessions) == 0:
		return "No sessions found."
	case m.tab == tabSessions:
		return m.sessions.View()
	default:
		return m.overview.View()
	}
}

// nextCurveWindow steps the moving-average window up to the next multiple of 5.
func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}
