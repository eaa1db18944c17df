package sound

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/flowrite/internal/model"
)

type recorder struct {
	started [][]string
	stopped int
	err     error
}

func (r *recorder) start(argv []string) (func(), error) {
	if r.err != nil {
		return nil, r.err
	}
	r.started = append(r.started, argv)
	return func() { r.stopped++ }, nil
}

func TestBellCues(t *testing.T) {
	var out bytes.Buffer
	p, err := New(model.SoundConfig{Bell: true, Typewriter: true}, WithOutput(&out))
	require.NoError(t, err)

	p.Click()
	require.Empty(t, out.String())

	p.Paragraph()
	p.Target()
	require.Equal(t, "\a\a", out.String())
}

func TestBellDisabled(t *testing.T) {
	var out bytes.Buffer
	p, err := New(model.SoundConfig{Bell: false, Typewriter: true}, WithOutput(&out))
	require.NoError(t, err)

	p.Paragraph()
	p.Target()
	p.AlarmStart()
	p.AlarmBeep()
	require.Empty(t, out.String())
}

func TestAlarmBeepsOnlyWhileActive(t *testing.T) {
	var out bytes.Buffer
	p, err := New(model.SoundConfig{Bell: true}, WithOutput(&out))
	require.NoError(t, err)

	p.AlarmBeep()
	require.Empty(t, out.String())

	p.AlarmStart()
	require.True(t, p.AlarmActive())
	p.AlarmBeep()
	p.AlarmBeep()
	require.Equal(t, 2, strings.Count(out.String(), "\a"))

	p.AlarmStop()
	require.False(t, p.AlarmActive())
	p.AlarmBeep()
	require.Equal(t, 2, strings.Count(out.String(), "\a"))
}

func TestCommandsAreSplit(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	p, err := New(model.SoundConfig{
		Bell:              true,
		Typewriter:        true,
		TypewriterCommand: `paplay "/usr/share/sounds/key press.oga"`,
		TargetCommand:     "paplay fanfare.oga",
	}, WithOutput(&out), WithStarter(rec.start))
	require.NoError(t, err)

	p.Click()
	p.Target()
	require.Equal(t, [][]string{
		{"paplay", "/usr/share/sounds/key press.oga"},
		{"paplay", "fanfare.oga"},
	}, rec.started)
	require.Empty(t, out.String())
}

func TestAlarmCommandRunsUntilStopped(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	p, err := New(model.SoundConfig{Bell: true, AlarmCommand: "play -n synth sine 520"},
		WithOutput(&out), WithStarter(rec.start))
	require.NoError(t, err)

	p.AlarmStart()
	p.AlarmStart()
	require.Len(t, rec.started, 1)

	p.AlarmBeep()
	require.Empty(t, out.String())

	p.AlarmStop()
	require.Equal(t, 1, rec.stopped)
	p.AlarmStop()
	require.Equal(t, 1, rec.stopped)
}

func TestCommandFailureIsSwallowed(t *testing.T) {
	rec := &recorder{err: errors.New("not found")}
	p, err := New(model.SoundConfig{TargetCommand: "missing-player"}, WithStarter(rec.start))
	require.NoError(t, err)

	p.Target()
	p.AlarmStart()
	require.True(t, p.AlarmActive())
	p.AlarmStop()
}

func TestInvalidCommand(t *testing.T) {
	_, err := New(model.SoundConfig{AlarmCommand: `play "unterminated`})
	require.Error(t, err)
}

func TestNilPlayerIsSilent(t *testing.T) {
	var p *Player
	p.Click()
	p.Paragraph()
	p.Target()
	p.AlarmStart()
	p.AlarmBeep()
	p.AlarmStop()
	require.False(t, p.AlarmActive())
}
