// Package logger wraps zap construction so both binaries configure
// structured logging the same way.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger holds the process-wide zap logger.
type Logger struct {
	// Log is the configured logger. It is a no-op logger until Init succeeds.
	Log   *zap.Logger
	level zap.AtomicLevel
}

// New returns a Logger whose Log is a no-op until Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// Init builds a production zap logger at the given level ("debug", "info",
// "warn", "error").
func (l *Logger) Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl)

	cfg := zap.NewProductionConfig()
	cfg.Level = l.level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}

// SetLevel changes the level of an initialised logger at runtime.
func (l *Logger) SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl)
	return nil
}
