package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/shlex"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/flowrite/internal/config"
	"github.com/verte-zerg/flowrite/internal/historyui"
	"github.com/verte-zerg/flowrite/internal/logging"
	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/replay"
	"github.com/verte-zerg/flowrite/internal/session"
	"github.com/verte-zerg/flowrite/internal/sound"
	"github.com/verte-zerg/flowrite/internal/stats"
	"github.com/verte-zerg/flowrite/internal/store"
	"github.com/verte-zerg/flowrite/internal/tui"
)

const (
	formatTUI   = "tui"
	formatTable = "table"
	formatYAML  = "yaml"
	formatPlain = "plain"

	trendHeight = 10
)

var (
	writeWords       int
	writeMinutes     int
	writeMinWPM      int
	writeTargetWPM   int
	writeNoBackspace bool
	writeFullscreen  bool
	writeStart       bool

	historySince       string
	historyLast        int
	historyCurveWindow int
	historyFormat      string

	replayFormat string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flowrite",
		Short:         "Terminal writing timer that keeps you typing",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runWriteCmd,
	}

	rootCmd.Flags().IntVar(&writeWords, "words", defaultWordGoal, "word goal")
	rootCmd.Flags().IntVar(&writeMinutes, "minutes", defaultTimeGoal, "time goal in minutes")
	rootCmd.Flags().IntVar(&writeMinWPM, "min-wpm", defaultMinimumWPM, "alarm when the pace stays below this WPM")
	rootCmd.Flags().IntVar(&writeTargetWPM, "target-wpm", defaultTargetWPM, "target WPM (0 disables)")
	rootCmd.Flags().BoolVar(&writeNoBackspace, "no-backspace", false, "disable deletion while writing")
	rootCmd.Flags().BoolVar(&writeFullscreen, "fullscreen", true, "use the alternate screen")
	rootCmd.Flags().BoolVar(&writeStart, "start", false, "skip the setup screen")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newReplayCmd())

	return rootCmd
}

func runWriteCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "words", &writeWords, fileCfg.Writing.WordGoal)
	applyIntConfig(cmd, "minutes", &writeMinutes, fileCfg.Writing.TimeGoal)
	applyIntConfig(cmd, "min-wpm", &writeMinWPM, fileCfg.Writing.MinimumWPM)
	applyIntConfig(cmd, "target-wpm", &writeTargetWPM, fileCfg.Writing.TargetWPM)
	applyBoolConfig(cmd, "no-backspace", &writeNoBackspace, fileCfg.Writing.NoBackspace)
	applyBoolConfig(cmd, "fullscreen", &writeFullscreen, fileCfg.Writing.Fullscreen)

	pacingCfg, err := resolvePacing(fileCfg)
	if err != nil {
		return err
	}
	set := settings{
		session: model.SessionConfig{
			WordGoal:    writeWords,
			TimeGoal:    time.Duration(writeMinutes) * time.Minute,
			MinimumWPM:  writeMinWPM,
			TargetWPM:   writeTargetWPM,
			NoBackspace: writeNoBackspace,
		},
		pacing:     pacingCfg,
		sound:      resolveSound(fileCfg),
		fullscreen: writeFullscreen,
		log:        resolveLog(fileCfg),
	}
	if err := validateSession(set.session); err != nil {
		return err
	}

	lock, err := session.AcquireLock(config.DefaultLockPath())
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return fmt.Errorf("another flowrite session is already running")
		}
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logErrf("failed to release lock: %v\n", rerr)
		}
	}()

	logger, logCloser, err := logging.New(set.log)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := logCloser.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	var previous *model.WritingSession
	if last, ok, lerr := st.LatestSession(cmd.Context()); lerr != nil {
		logger.Warn("failed to load last session", "err", lerr)
	} else if ok {
		previous = &last
	}

	player, err := sound.New(set.sound, sound.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to configure sound: %w", err)
	}
	defer player.AlarmStop()

	if clipboard.Unsupported {
		logErrln("clipboard unavailable; copying finished text is disabled")
	}

	logger.Info("starting flowrite",
		"word_goal", set.session.WordGoal,
		"time_goal", set.session.TimeGoal,
		"minimum_wpm", set.session.MinimumWPM,
		"target_wpm", set.session.TargetWPM,
	)

	m := tui.NewModel(tui.Options{
		Session:   set.session,
		Pacing:    set.pacing,
		SkipSetup: writeStart,
		Clock:     time.Now,
		Store:     st,
		Player:    player,
		Logger:    logger,
		CopyText:  clipboard.WriteAll,
		Previous:  previous,
	})
	var programOpts []tea.ProgramOption
	if set.fullscreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(m, programOpts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Edit config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	parts, err := editorCommand(os.Getenv("EDITOR"))
	if err != nil {
		return err
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// editorCommand splits $EDITOR, honouring quotes. Unset falls back to vi.
func editorCommand(editor string) ([]string, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		editor = "vi"
	}
	parts, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EDITOR: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return parts, nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show writing session history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "only sessions since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "only the last N sessions")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the trend")
	cmd.Flags().StringVar(&historyFormat, "format", formatTUI, "output format: tui, table, yaml or plain")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historySince, historyLast, historyCurveWindow)
	if err != nil {
		return err
	}
	format, err := resolveFormat(historyFormat, formatTUI, formatTable, formatYAML, formatPlain)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if format == formatTUI {
		program := tea.NewProgram(historyui.NewModel(st, filter), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return writeHistory(cmd.OutOrStdout(), report, format, colorEnabled())
}

func historyFilter(since string, last, curveWindow int) (model.HistoryFilter, error) {
	if last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	if curveWindow < 1 {
		return model.HistoryFilter{}, fmt.Errorf("--curve-window must be >= 1")
	}
	filter := model.HistoryFilter{Last: last, CurveWindow: curveWindow}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func writeHistory(w io.Writer, report stats.Report, format string, color bool) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		doc := struct {
			Summary  stats.Summary          `yaml:"summary"`
			Sessions []model.WritingSession `yaml:"sessions"`
		}{report.Summary, report.Sessions}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		return enc.Close()
	case formatTable:
		if len(report.Sessions) == 0 {
			_, err := fmt.Fprintln(w, "No sessions yet.")
			return err
		}
		aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
		if _, err := fmt.Fprintln(w, renderTable(stats.SessionHeaders, stats.SessionRows(report.Sessions), aligns)); err != nil {
			return err
		}
		return stats.RenderSummary(w, report.Summary)
	default:
		if len(report.Sessions) == 0 {
			_, err := fmt.Fprintln(w, "No sessions yet.")
			return err
		}
		if err := stats.RenderSummary(w, report.Summary); err != nil {
			return err
		}
		if err := stats.RenderSessions(w, report.Sessions); err != nil {
			return err
		}
		return stats.RenderTrend(w, report.Sessions, report.Window, 0, trendHeight, color)
	}
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a scripted writing session and print the pacing timeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().StringVar(&replayFormat, "format", formatTable, "output format: table or yaml")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(replayFormat, formatTable, formatYAML)
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	base, err := resolvePacing(fileCfg)
	if err != nil {
		return err
	}
	sc, err := replay.Load(args[0])
	if err != nil {
		return err
	}
	return writeReplay(cmd.OutOrStdout(), replay.Run(sc, base), format)
}

func writeReplay(w io.Writer, res replay.Result, format string) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode replay: %w", err)
		}
		return enc.Close()
	}

	rows := make([][]string, 0, len(res.Timeline))
	for _, e := range res.Timeline {
		rows = append(rows, []string{
			fmt.Sprintf("%.1fs", e.At.Seconds()),
			e.Kind,
			fmt.Sprintf("%d", e.Words),
			fmt.Sprintf("%d", e.Rate),
		})
	}
	out := renderTable(
		[]string{"At", "Event", "Words", "WPM"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	)
	if _, err := fmt.Fprintln(w, out); err != nil {
		return err
	}

	sum := res.Summary
	saved := "no"
	if res.Saved {
		saved = "yes"
	}
	_, err := fmt.Fprintf(w, "Words: %d  Duration: %s  Avg WPM: %d  Peak WPM: %d  Alarms: %d  Saved: %s\n",
		sum.WordCount, stats.FormatDuration(sum.DurationSeconds), sum.AverageWPM, sum.PeakWPM, sum.Alarms, saved)
	return err
}

func resolveFormat(value string, allowed ...string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("--format must be one of: %s", strings.Join(allowed, ", "))
}

// colorEnabled reports whether stdout takes ANSI colour. NO_COLOR and
// CLICOLOR_FORCE are honoured.
func colorEnabled() bool {
	return termenv.NewOutput(os.Stdout).EnvColorProfile() != termenv.Ascii
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
