// Package logger provides a small leveled logger with coloured output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level orders log severities.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the padded-free level name.
func (level Level) String() string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(level))
}

// ParseLevel converts a flag value into a Level. Unknown values map to INFO.
func ParseLevel(value string) Level {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

type sink struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// Logger writes prefixed, leveled lines. Children created with WithPrefix
// share the parent's output.
type Logger struct {
	level  Level
	prefix string
	sink   *sink
}

// New creates a logger writing to stdout.
func New(level Level, prefix string) *Logger {
	return &Logger{
		level:  level,
		prefix: prefix,
		sink:   &sink{out: os.Stdout, now: time.Now},
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	log := New(ERROR+1, "")
	log.SetOutput(io.Discard)
	return log
}

// SetOutput redirects output for this logger and every child.
func (l *Logger) SetOutput(out io.Writer) {
	l.sink.mu.Lock()
	l.sink.out = out
	l.sink.mu.Unlock()
}

// WithPrefix returns a child logger with a dotted prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + "." + prefix
	}
	return &Logger{level: l.level, prefix: newPrefix, sink: l.sink}
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	message := fmt.Sprintf(format, args...)

	var levelColor *color.Color
	switch level {
	case DEBUG:
		levelColor = color.New(color.FgHiBlack)
	case INFO:
		levelColor = color.New(color.FgCyan)
	case WARN:
		levelColor = color.New(color.FgYellow)
	default:
		levelColor = color.New(color.FgRed)
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	prefix := ""
	if l.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", l.prefix)
	}
	timestamp := l.sink.now().Format("15:04:05")
	fmt.Fprintf(l.sink.out, "%s %s %s%s\n",
		color.New(color.FgHiBlack).Sprintf("[%s]", timestamp),
		levelColor.Sprintf("%-5s", level.String()),
		prefix,
		message,
	)
}
