package alert

import (
	"context"
	"os"
	"os/exec"
	"time"

	"ambulancewatch/internal/logger"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// SoundInfo describes a validated alert sound.
type SoundInfo struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// ValidateSound checks that path is a readable WAV file.
func ValidateSound(path string) (SoundInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return SoundInfo{}, errors.Wrapf(err, "open alert sound %s", path)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return SoundInfo{}, errors.Errorf("alert sound %s is not a valid wav file", path)
	}
	dur, err := d.Duration()
	if err != nil {
		return SoundInfo{}, errors.Wrapf(err, "read duration of %s", path)
	}
	return SoundInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		Duration:   dur,
	}, nil
}

// Player plays the alert sound through an external command such as aplay.
type Player struct {
	path    string
	command string
	valid   bool
	logger  *logger.Logger

	// run is swapped in tests
	run func(ctx context.Context, name string, args ...string) error
}

// NewPlayer validates the sound once. An unusable file is logged and later
// playback is skipped, it never fails start-up.
func NewPlayer(path, command string, logger *logger.Logger) *Player {
	p := &Player{path: path, command: command, logger: logger, run: runCommand}

	info, err := ValidateSound(path)
	switch {
	case os.IsNotExist(errors.Cause(err)):
		logger.Warning("alert sound file not found: %s", path)
	case err != nil:
		logger.Warning("Alert sound disabled: %v", err)
	default:
		p.valid = true
		logger.Info("🔊 Alert sound %s ready (%s, %d Hz, %d ch)", path, info.Duration, info.SampleRate, info.Channels)
	}
	return p
}

// Notify plays the sound once. It implements Sink.
func (p *Player) Notify(ctx context.Context, _ Alert) error {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		p.logger.Warning("alert sound file not found: %s", p.path)
		return nil
	}
	if !p.valid || p.command == "" {
		return nil
	}
	if err := p.run(ctx, p.command, p.path); err != nil {
		return errors.Wrapf(err, "play %s with %s", p.path, p.command)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
