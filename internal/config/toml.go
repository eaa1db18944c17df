// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Writing WritingConfig `toml:"writing"`
	Pacing  PacingConfig  `toml:"pacing"`
	Sound   SoundConfig   `toml:"sound"`
	Log     LogConfig     `toml:"log"`
}

// WritingConfig maps the default session goals.
type WritingConfig struct {
	WordGoal    *int  `toml:"word-goal"`
	TimeGoal    *int  `toml:"time-goal"`
	MinimumWPM  *int  `toml:"minimum-wpm"`
	TargetWPM   *int  `toml:"target-wpm"`
	NoBackspace *bool `toml:"no-backspace"`
	Fullscreen  *bool `toml:"fullscreen"`
}

// PacingConfig maps rate and alarm timing. Values are Go duration strings.
type PacingConfig struct {
	Window         *string `toml:"window"`
	IdleTimeout    *string `toml:"idle-timeout"`
	Grace          *string `toml:"grace"`
	AlarmDebounce  *string `toml:"alarm-debounce"`
	RateInterval   *string `toml:"rate-interval"`
	PacingInterval *string `toml:"pacing-interval"`
	ClockInterval  *string `toml:"clock-interval"`
}

// SoundConfig maps audio cue settings.
type SoundConfig struct {
	Bell              *bool   `toml:"bell"`
	Typewriter        *bool   `toml:"typewriter"`
	AlarmCommand      *string `toml:"alarm-command"`
	TypewriterCommand *string `toml:"typewriter-command"`
	ParagraphCommand  *string `toml:"paragraph-command"`
	TargetCommand     *string `toml:"target-command"`
}

// LogConfig maps log settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyDuration parses value into target when set. Empty strings are ignored.
func ApplyDuration(name string, target *time.Duration, value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, *value, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	*target = d
	return nil
}
