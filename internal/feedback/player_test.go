package feedback

import (
	"context"
	"math"
	"testing"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/core/model"
)

func TestDisabledSoundSkipsSpeaker(t *testing.T) {
	player := NewPlayer(nil)
	settings := model.DefaultSettings()
	settings.SoundEnabled = false

	require.NoError(t, player.Play(context.Background(), settings))

	settings.SoundEnabled = true
	settings.Volume = 0
	require.NoError(t, player.Play(context.Background(), settings))
}

func TestChimeLengthAndAmplitude(t *testing.T) {
	const rate beep.SampleRate = 8000
	streamer := Chime(rate)

	buffer := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := streamer.Stream(buffer)
		for _, sample := range buffer[:n] {
			peak = math.Max(peak, math.Abs(sample[0]))
			assert.Equal(t, sample[0], sample[1])
		}
		total += n
		if !ok {
			break
		}
	}

	assert.Equal(t, ChimeLength(rate), total)
	assert.Greater(t, peak, 0.1)
	assert.LessOrEqual(t, peak, 0.5)
}

func TestVolumeLevel(t *testing.T) {
	level, silent := volumeLevel(1)
	assert.False(t, silent)
	assert.Equal(t, 0.0, level)

	level, _ = volumeLevel(0.5)
	assert.Equal(t, -1.0, level)

	_, silent = volumeLevel(0)
	assert.True(t, silent)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Play(context.Background(), model.DefaultSettings()))
}
