// Package sound plays the audible cues of a writing session: the typewriter
// click, the paragraph chime, the target fanfare and the below-pace alarm.
package sound

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"

	"github.com/verte-zerg/flowrite/internal/model"
)

const bell = "\a"

// Cue names a sound.
type Cue int

const (
	CueClick Cue = iota
	CueParagraph
	CueTarget
	CueAlarm
)

func (c Cue) String() string {
	switch c {
	case CueClick:
		return "click"
	case CueParagraph:
		return "paragraph"
	case CueTarget:
		return "target"
	case CueAlarm:
		return "alarm"
	default:
		return "unknown"
	}
}

// Starter launches an external sound command. It returns a stop function that
// kills the process if it is still running.
type Starter func(argv []string) (stop func(), err error)

// Player emits cues. A nil *Player is silent.
type Player struct {
	out      io.Writer
	bell     bool
	click    bool
	commands map[Cue][]string
	start    Starter
	logger   *slog.Logger

	mu        sync.Mutex
	alarmStop func()
	alarmOn   bool
}

// Option customizes a Player.
type Option func(*Player)

// WithOutput writes bells to w regardless of whether it is a terminal.
func WithOutput(w io.Writer) Option {
	return func(p *Player) {
		p.out = w
	}
}

// WithStarter replaces process launching.
func WithStarter(s Starter) Option {
	return func(p *Player) {
		p.start = s
	}
}

// WithLogger sets the logger used for command failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds a Player from config. Bells go to stdout only when it is a
// terminal; commands are split with shell quoting rules.
func New(cfg model.SoundConfig, opts ...Option) (*Player, error) {
	p := &Player{
		bell:     cfg.Bell,
		click:    cfg.Typewriter,
		commands: map[Cue][]string{},
		start:    startProcess,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		p.out = os.Stdout
	}
	for _, opt := range opts {
		opt(p)
	}

	raw := map[Cue]string{
		CueClick:     cfg.TypewriterCommand,
		CueParagraph: cfg.ParagraphCommand,
		CueTarget:    cfg.TargetCommand,
		CueAlarm:     cfg.AlarmCommand,
	}
	for cue, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		argv, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("parse %s command: %w", cue, err)
		}
		if len(argv) > 0 {
			p.commands[cue] = argv
		}
	}
	return p, nil
}

// Click plays the typewriter sound for a direct keypress. Without a
// typewriter command it is silent.
func (p *Player) Click() {
	if p == nil || !p.click {
		return
	}
	p.play(CueClick)
}

// Paragraph plays the new-paragraph chime.
func (p *Player) Paragraph() {
	if p == nil || !p.click {
		return
	}
	if !p.play(CueParagraph) {
		p.ring()
	}
}

// Target plays once when the target pace is crossed.
func (p *Player) Target() {
	if p == nil {
		return
	}
	if !p.play(CueTarget) {
		p.ring()
	}
}

// AlarmStart begins the alarm. With an alarm command configured the command
// runs until AlarmStop; otherwise callers ring AlarmBeep on their own cadence.
func (p *Player) AlarmStart() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.alarmOn {
		return
	}
	p.alarmOn = true
	if argv, ok := p.commands[CueAlarm]; ok {
		stop, err := p.start(argv)
		if err != nil {
			p.logger.Warn("alarm command failed", "err", err)
			return
		}
		p.alarmStop = stop
	}
}

// AlarmBeep rings one beat of the alarm loop.
func (p *Player) AlarmBeep() {
	if p == nil {
		return
	}
	p.mu.Lock()
	on := p.alarmOn
	external := p.alarmStop != nil
	p.mu.Unlock()
	if on && !external {
		p.ring()
	}
}

// AlarmStop silences the alarm.
func (p *Player) AlarmStop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alarmOn = false
	if p.alarmStop != nil {
		p.alarmStop()
		p.alarmStop = nil
	}
}

// AlarmActive reports whether the alarm is sounding.
func (p *Player) AlarmActive() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alarmOn
}

func (p *Player) play(cue Cue) bool {
	argv, ok := p.commands[cue]
	if !ok {
		return false
	}
	if _, err := p.start(argv); err != nil {
		p.logger.Warn("sound command failed", "cue", cue.String(), "err", err)
	}
	return true
}

func (p *Player) ring() {
	if !p.bell || p.out == nil {
		return
	}
	if _, err := io.WriteString(p.out, bell); err != nil {
		p.logger.Debug("bell write failed", "err", err)
	}
}

func startProcess(argv []string) (func(), error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		// Exit status of a sound player is irrelevant.
		_ = cmd.Wait()
		close(done)
	}()
	return func() {
		select {
		case <-done:
		default:
			if err := cmd.Process.Kill(); err != nil {
				// Best-effort: the process may have exited between checks.
				_ = err
			}
		}
	}, nil
}
