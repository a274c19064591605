package feedback

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// DefaultSampleRate is used to open the speaker.
const DefaultSampleRate beep.SampleRate = 44100

type note struct {
	frequency float64
	duration  time.Duration
}

var chimeNotes = []note{
	{frequency: 880, duration: 180 * time.Millisecond},
	{frequency: 0, duration: 70 * time.Millisecond},
	{frequency: 1318.5, duration: 320 * time.Millisecond},
}

// Chime returns the two-note completion cue.
func Chime(sampleRate beep.SampleRate) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(chimeNotes))
	for _, n := range chimeNotes {
		if n.frequency == 0 {
			streamers = append(streamers, beep.Silence(sampleRate.N(n.duration)))
			continue
		}
		streamers = append(streamers, tone(sampleRate, n.frequency, n.duration))
	}
	return beep.Seq(streamers...)
}

// ChimeLength is the number of samples Chime produces.
func ChimeLength(sampleRate beep.SampleRate) int {
	total := 0
	for _, n := range chimeNotes {
		total += sampleRate.N(n.duration)
	}
	return total
}

// tone is a sine wave with a linear fade-out so it ends without a click.
func tone(sampleRate beep.SampleRate, frequency float64, duration time.Duration) beep.Streamer {
	total := sampleRate.N(duration)
	position := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if position >= total {
			return 0, false
		}
		for i := range samples {
			if position >= total {
				break
			}
			envelope := 1 - float64(position)/float64(total)
			value := 0.5 * envelope * math.Sin(2*math.Pi*frequency*float64(position)/float64(sampleRate))
			samples[i][0] = value
			samples[i][1] = value
			position++
			n++
		}
		return n, true
	})
}

// volumeLevel maps a 0..1 setting to effects.Volume's base-2 exponent.
func volumeLevel(volume float64) (level float64, silent bool) {
	if volume <= 0 {
		return 0, true
	}
	if volume > 1 {
		volume = 1
	}
	return math.Log2(volume), false
}
