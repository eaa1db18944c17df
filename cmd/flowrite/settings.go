package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/flowrite/internal/config"
	"github.com/verte-zerg/flowrite/internal/logging"
	"github.com/verte-zerg/flowrite/internal/model"
	"github.com/verte-zerg/flowrite/internal/pacing"
	"github.com/verte-zerg/flowrite/internal/wpm"
)

const (
	defaultWordGoal    = 500
	defaultTimeGoal    = 30
	defaultMinimumWPM  = 30
	defaultTargetWPM   = 60
	defaultCurveWindow = 5
	defaultLogLevel    = "info"
)

// settings is the resolved configuration: flags over file over defaults.
type settings struct {
	session    model.SessionConfig
	pacing     model.PacingConfig
	sound      model.SoundConfig
	fullscreen bool
	log        logging.Options
}

func defaultPacing() model.PacingConfig {
	return model.PacingConfig{
		Window:         wpm.DefaultWindow,
		IdleTimeout:    wpm.DefaultIdleTimeout,
		Grace:          pacing.DefaultGrace,
		AlarmDebounce:  pacing.DefaultDebounce,
		RateInterval:   2 * time.Second,
		PacingInterval: pacing.DefaultTickInterval,
		ClockInterval:  time.Second,
	}
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// resolvePacing overlays the [pacing] section onto the defaults.
func resolvePacing(fileCfg config.FileConfig) (model.PacingConfig, error) {
	p := defaultPacing()
	fp := fileCfg.Pacing
	fields := []struct {
		name   string
		target *time.Duration
		value  *string
	}{
		{"pacing.window", &p.Window, fp.Window},
		{"pacing.idle-timeout", &p.IdleTimeout, fp.IdleTimeout},
		{"pacing.grace", &p.Grace, fp.Grace},
		{"pacing.alarm-debounce", &p.AlarmDebounce, fp.AlarmDebounce},
		{"pacing.rate-interval", &p.RateInterval, fp.RateInterval},
		{"pacing.pacing-interval", &p.PacingInterval, fp.PacingInterval},
		{"pacing.clock-interval", &p.ClockInterval, fp.ClockInterval},
	}
	for _, f := range fields {
		if err := config.ApplyDuration(f.name, f.target, f.value); err != nil {
			return model.PacingConfig{}, err
		}
	}
	return p, nil
}

func resolveSound(fileCfg config.FileConfig) model.SoundConfig {
	s := model.SoundConfig{Bell: true, Typewriter: true}
	fs := fileCfg.Sound
	setBool(&s.Bell, fs.Bell)
	setBool(&s.Typewriter, fs.Typewriter)
	setString(&s.AlarmCommand, fs.AlarmCommand)
	setString(&s.TypewriterCommand, fs.TypewriterCommand)
	setString(&s.ParagraphCommand, fs.ParagraphCommand)
	setString(&s.TargetCommand, fs.TargetCommand)
	return s
}

func resolveLog(fileCfg config.FileConfig) logging.Options {
	opts := logging.Options{Level: defaultLogLevel, Path: config.DefaultLogPath()}
	setString(&opts.Level, fileCfg.Log.Level)
	setString(&opts.Path, fileCfg.Log.Path)
	return opts
}

func validateSession(cfg model.SessionConfig) error {
	if cfg.WordGoal <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.TimeGoal <= 0 {
		return fmt.Errorf("--minutes must be > 0")
	}
	if cfg.MinimumWPM <= 0 {
		return fmt.Errorf("--min-wpm must be > 0")
	}
	if cfg.TargetWPM < 0 {
		return fmt.Errorf("--target-wpm must be >= 0")
	}
	return nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func setBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	p := defaultPacing()
	return fmt.Sprintf(`# flowrite configuration
# Uncomment a value to enable it. CLI flags override config values.

[writing]
# word-goal = %d           # Words to write before the session ends
# time-goal = %d            # Time goal in minutes
# minimum-wpm = %d          # Alarm when the rolling rate stays below this
# target-wpm = %d           # Celebrate when the rolling rate reaches this (0 disables)
# no-backspace = false      # Swallow deletion keys while writing
# fullscreen = true         # Use the alternate screen

[pacing]
# window = %q             # Rolling rate window
# idle-timeout = %q        # Rate drops to 0 after this long without typing
# grace = %q             # No alarm during the first part of a session
# alarm-debounce = %q    # How long the rate must stay low before the alarm
# rate-interval = %q       # Rate display refresh
# pacing-interval = %q  # Alarm evaluation cadence
# clock-interval = %q      # Clock display refresh

[sound]
# bell = true               # Ring the terminal bell for cues
# typewriter = true         # Keypress and paragraph sounds
# alarm-command = ""        # Command run while the alarm sounds, killed when it stops
# typewriter-command = ""   # Command run on each keypress
# paragraph-command = ""    # Command run when a paragraph starts
# target-command = ""       # Command run when the target pace is reached

[log]
# level = %q            # debug, info, warn or error
# path = ""                 # Log file (default under $XDG_STATE_HOME/flowrite)
`,
		defaultWordGoal,
		defaultTimeGoal,
		defaultMinimumWPM,
		defaultTargetWPM,
		p.Window.String(),
		p.IdleTimeout.String(),
		p.Grace.String(),
		p.AlarmDebounce.String(),
		p.RateInterval.String(),
		p.PacingInterval.String(),
		p.ClockInterval.String(),
		defaultLogLevel,
	)
}
