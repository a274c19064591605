package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	log := New(level, "timer")
	log.SetOutput(&buf)
	log.sink.now = func() time.Time {
		return time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	}
	return log, &buf
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(WARN)

	log.Debug("hidden %d", 1)
	log.Info("hidden %d", 2)
	log.Warn("shown %d", 3)
	log.Error("shown %d", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "[09:30:00] WARN  [timer] shown 3", lines[0])
	assert.Equal(t, "[09:30:00] ERROR [timer] shown 4", lines[1])
}

func TestWithPrefixSharesOutput(t *testing.T) {
	log, buf := newBufferLogger(DEBUG)

	log.WithPrefix("engine").Info("tick")

	assert.Contains(t, buf.String(), "[timer.engine] tick")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(ERROR))
}
