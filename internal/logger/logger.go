// Package logger provides the leveled, colored terminal logger used across
// the framework. Output goes to stderr; the Command method writes a one-line
// audit record for every dispatched bot command.
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel maps a config string to a Level. Unknown values default to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "off":
		return LevelSilent
	default:
		return LevelInfo
	}
}

var (
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	cmdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Logger writes leveled log lines with an optional component prefix.
type Logger struct {
	level  Level
	prefix string
}

// New creates a Logger with the given minimum level and prefix.
func New(level Level, prefix string) *Logger {
	return &Logger{level: level, prefix: prefix}
}

// WithPrefix returns a copy of the logger tagged with a component prefix,
// e.g. "Plugins" renders as "[Plugins]".
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{level: l.level, prefix: prefix}
}

// Level returns the logger's minimum level.
func (l *Logger) Level() Level { return l.level }

func (l *Logger) write(tag string, style lipgloss.Style, args ...any) {
	ts := timeStyle.Render(time.Now().Format("15:04:05"))
	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	fmt.Fprintln(os.Stderr, style.Render(tag), ts, prefix+fmt.Sprint(args...))
}

func (l *Logger) writef(tag string, style lipgloss.Style, format string, args ...any) {
	l.write(tag, style, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(args ...any) {
	if l.level <= LevelDebug {
		l.write("[DEBUG]", debugStyle, args...)
	}
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	if l.level <= LevelDebug {
		l.writef("[DEBUG]", debugStyle, format, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(args ...any) {
	if l.level <= LevelInfo {
		l.write("[INFO]", infoStyle, args...)
	}
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	if l.level <= LevelInfo {
		l.writef("[INFO]", infoStyle, format, args...)
	}
}

// Success logs at info level with the success color.
func (l *Logger) Success(args ...any) {
	if l.level <= LevelInfo {
		l.write("[OK]", successStyle, args...)
	}
}

// Successf logs a formatted success message.
func (l *Logger) Successf(format string, args ...any) {
	if l.level <= LevelInfo {
		l.writef("[OK]", successStyle, format, args...)
	}
}

// Warn logs at warn level.
func (l *Logger) Warn(args ...any) {
	if l.level <= LevelWarn {
		l.write("[WARN]", warnStyle, args...)
	}
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	if l.level <= LevelWarn {
		l.writef("[WARN]", warnStyle, format, args...)
	}
}

// Error logs at error level.
func (l *Logger) Error(args ...any) {
	if l.level <= LevelError {
		l.write("[ERROR]", errorStyle, args...)
	}
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	if l.level <= LevelError {
		l.writef("[ERROR]", errorStyle, format, args...)
	}
}

// Command writes the audit line for a dispatched command.
func (l *Logger) Command(command, sender string) {
	if l.level <= LevelInfo {
		l.write("[CMD]", cmdStyle, fmt.Sprintf("%s from %s", command, sender))
	}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger { return &Logger{level: LevelSilent} }
