package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of uber-go/zap. The level is held in a
// zap.AtomicLevel so SetLevel takes effect at runtime, and SetOutput swaps
// the core while keeping the level and bound fields.
type ZapLogger struct {
	mu     sync.Mutex
	logger *zap.Logger
	level  zap.AtomicLevel
	bound  []Field
}

// ZapOption configures a ZapLogger at construction time.
type ZapOption func(*zapSettings)

type zapSettings struct {
	development bool
	level       zapcore.Level
	sink        io.Writer
}

// WithDevelopmentMode switches to the human-readable console encoding.
func WithDevelopmentMode() ZapOption {
	return func(s *zapSettings) {
		s.development = true
	}
}

// WithDebugLevel lowers the initial level to debug.
func WithDebugLevel() ZapOption {
	return func(s *zapSettings) {
		s.level = zapcore.DebugLevel
	}
}

// WithLogLevel sets the initial level.
func WithLogLevel(level Level) ZapOption {
	return func(s *zapSettings) {
		s.level = toZapLevel(level)
	}
}

// WithOutput directs entries to w instead of stdout.
func WithOutput(w io.Writer) ZapOption {
	return func(s *zapSettings) {
		s.sink = w
	}
}

// NewZapLogger creates a zap-backed Logger. Without options it writes JSON
// entries to stdout at INFO level.
func NewZapLogger(options ...ZapOption) Logger {
	settings := &zapSettings{
		level: zapcore.InfoLevel,
		sink:  os.Stdout,
	}
	for _, opt := range options {
		opt(settings)
	}

	l := &ZapLogger{
		level: zap.NewAtomicLevelAt(settings.level),
	}
	l.logger = zap.New(
		l.buildCore(settings.sink, settings.development),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return l
}

func (l *ZapLogger) buildCore(w io.Writer, development bool) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(w), l.level)
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) emit(level zapcore.Level, msg string, fields []Field) {
	if ce := l.logger.Check(level, msg); ce != nil {
		ce.Write(l.zapFields(fields)...)
	}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.emit(zapcore.DebugLevel, msg, fields) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.emit(zapcore.InfoLevel, msg, fields) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.emit(zapcore.WarnLevel, msg, fields) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.emit(zapcore.ErrorLevel, msg, fields) }

// WithFields implements Logger. The returned logger shares the level and
// core with its parent.
func (l *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{
		logger: l.logger,
		level:  l.level,
		bound:  mergeFields(l.bound, fields),
	}
}

// SetLevel implements Logger. The change applies to every logger derived
// from the same parent.
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(toZapLevel(level))
}

// SetOutput implements Logger by rebuilding the core around w, keeping the
// current level.
func (l *ZapLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = zap.New(
		l.buildCore(w, false),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// GetZapLogger returns the underlying zap.Logger for embedders that want to
// hand it to zap-aware libraries.
func (l *ZapLogger) GetZapLogger() *zap.Logger {
	return l.logger
}

func (l *ZapLogger) zapFields(fields []Field) []zap.Field {
	merged := mergeFields(l.bound, fields)
	zapFields := make([]zap.Field, 0, len(merged))
	for _, f := range merged {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}

// Close flushes buffered entries.
func (l *ZapLogger) Close() error {
	return l.logger.Sync()
}
