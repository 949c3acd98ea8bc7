package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Logger represents the logging interface used throughout the graph.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Debugf(template string, args ...any)

	With(fields ...Field) Logger
	Named(name string) Logger
	Sync() error
}

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelDebug LogLevel = "debug"
)

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level       LogLevel
	Format      string // console | json
	Environment string // development | production
	Output      io.Writer
}

// logger implements the Logger interface using zap
type logger struct {
	zap *zap.Logger
}

// noopLogger implements Logger interface but does nothing
type noopLogger struct{}

// NewLogger creates a new logger with the given configuration
func NewLogger(config LoggingConfig) Logger {
	level := parseLevel(config.Level)

	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	sink := zapcore.AddSync(out)

	if config.Environment == "production" || config.Format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, zap.NewAtomicLevelAt(level))

		return &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
	}

	return &logger{zap: createDevelopmentLogger(level, sink)}
}

// NewDevelopmentLogger creates a development logger with colored levels
func NewDevelopmentLogger() Logger {
	return &logger{zap: createDevelopmentLogger(zapcore.DebugLevel, zapcore.AddSync(os.Stdout))}
}

// NewProductionLogger creates a production logger
func NewProductionLogger() Logger {
	return NewLogger(LoggingConfig{Level: LevelInfo, Environment: "production"})
}

// NewNoopLogger creates a logger that does nothing
func NewNoopLogger() Logger {
	return &noopLogger{}
}

// NewTestLogger returns a logger that records every entry at or above level.
// Tests assert on the returned observed logs.
func NewTestLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)

	return &logger{zap: zap.New(core)}, logs
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return NewNoopLogger()
	}

	return &logger{zap: z}
}

func parseLevel(level LogLevel) zapcore.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// createDevelopmentLogger creates a console logger with readable timestamps
func createDevelopmentLogger(level zapcore.Level, sink zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		sink,
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Implementation of Logger interface for logger

func (l *logger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, fields...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, fields...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, fields...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, fields...)
}

func (l *logger) Debugf(template string, args ...any) {
	if l.zap.Core().Enabled(zapcore.DebugLevel) {
		l.zap.Debug(fmt.Sprintf(template, args...))
	}
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}

// Implementation of Logger interface for noopLogger

func (l *noopLogger) Debug(msg string, fields ...Field) {}
func (l *noopLogger) Info(msg string, fields ...Field) {}
func (l *noopLogger) Warn(msg string, fields ...Field) {}
func (l *noopLogger) Error(msg string, fields ...Field) {}
func (l *noopLogger) Debugf(template string, args ...any) {}
func (l *noopLogger) With(fields ...Field) Logger { return l }
func (l *noopLogger) Named(name string) Logger { return l }
func (l *noopLogger) Sync() error { return nil }
