// Package logging defines the Logger interface injected into every component
// of the connector. Components never log through a process-wide logger; the
// caller decides the sink and the level at construction time.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// Logger is the logging surface the connector's components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithFields returns a logger that attaches the fields to every entry.
	WithFields(fields ...Field) Logger

	// SetLevel sets the minimum severity that is written.
	SetLevel(level Level)

	// SetOutput redirects entries to w.
	SetOutput(w io.Writer)
}

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors for common types.

func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// mergeFields concatenates bound fields with per-call fields; later keys win
// when the entry map is built.
func mergeFields(bound, extra []Field) []Field {
	merged := make([]Field, 0, len(bound)+len(extra))
	merged = append(merged, bound...)
	merged = append(merged, extra...)
	return merged
}

// jsonLogger is the zero-dependency implementation behind NewLogger: one
// JSON object per line, suitable for tests and small tools. Production
// embedders normally pass a ZapLogger instead.
type jsonLogger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	bound []Field
}

// NewLogger creates a logger writing JSON lines to stdout at INFO level.
func NewLogger() Logger {
	return &jsonLogger{
		out:   os.Stdout,
		level: INFO,
	}
}

func (l *jsonLogger) write(level Level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := make(map[string]interface{}, len(l.bound)+len(fields)+3)
	entry["timestamp"] = time.Now().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["message"] = msg
	for _, field := range mergeFields(l.bound, fields) {
		entry[field.Key] = field.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log entry not serializable: %v\n", err)
		return
	}
	fmt.Fprintf(l.out, "%s\n", line)
}

func (l *jsonLogger) Debug(msg string, fields ...Field) { l.write(DEBUG, msg, fields) }
func (l *jsonLogger) Info(msg string, fields ...Field)  { l.write(INFO, msg, fields) }
func (l *jsonLogger) Warn(msg string, fields ...Field)  { l.write(WARN, msg, fields) }
func (l *jsonLogger) Error(msg string, fields ...Field) { l.write(ERROR, msg, fields) }

func (l *jsonLogger) WithFields(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &jsonLogger{
		out:   l.out,
		level: l.level,
		bound: mergeFields(l.bound, fields),
	}
}

func (l *jsonLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *jsonLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Nop returns a logger that discards everything. Used as the default when a
// component is constructed without an explicit logger.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)       {}
func (nopLogger) Info(string, ...Field)        {}
func (nopLogger) Warn(string, ...Field)        {}
func (nopLogger) Error(string, ...Field)       {}
func (n nopLogger) WithFields(...Field) Logger { return n }
func (nopLogger) SetLevel(Level)               {}
func (nopLogger) SetOutput(io.Writer)          {}
