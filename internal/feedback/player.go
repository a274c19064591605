// Package feedback plays the completion cue when a rest period ends.
package feedback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"resttimer/internal/core/model"
	"resttimer/internal/logger"
)

// Player synthesises the chime through the system speaker.
type Player struct {
	sampleRate beep.SampleRate
	log        *logger.Logger

	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
}

// NewPlayer creates a Player. The speaker is opened on first use.
func NewPlayer(log *logger.Logger) *Player {
	if log == nil {
		log = logger.Discard()
	}
	return &Player{sampleRate: DefaultSampleRate, log: log}
}

// Play sounds the chime when enabled and waits for it to finish or for ctx.
// Vibration has no desktop equivalent and is only logged.
func (player *Player) Play(ctx context.Context, settings model.Settings) error {
	if settings.VibrationEnabled {
		player.log.Debug("vibration requested, not supported on this platform")
	}
	if !settings.SoundEnabled {
		return nil
	}
	level, silent := volumeLevel(settings.Volume)
	if silent {
		return nil
	}

	if err := player.init(); err != nil {
		return err
	}

	// One chime at a time.
	player.mu.Lock()
	defer player.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(
		&effects.Volume{
			Streamer: Chime(player.sampleRate),
			Base:     2,
			Volume:   level,
		},
		beep.Callback(func() { close(done) }),
	))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func (player *Player) init() error {
	player.initOnce.Do(func() {
		if err := speaker.Init(player.sampleRate, player.sampleRate.N(time.Second/10)); err != nil {
			player.initErr = fmt.Errorf("open speaker: %w", err)
		}
	})
	return player.initErr
}

// Noop is used when audio is disabled from the command line.
type Noop struct{}

// Play does nothing.
func (Noop) Play(ctx context.Context, settings model.Settings) error {
	return nil
}
