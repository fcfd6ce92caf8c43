// Package observability builds the structured loggers used by the armory
// daemon and tools.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/armory/internal/config"
)

// NewLogger creates a logger writing to stderr, so command output on stdout
// stays machine readable.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	return NewLoggerTo(cfg, service, zapcore.Lock(os.Stderr))
}

// NewLoggerTo is NewLogger with an explicit sink. Every entry carries a
// "service" field when service is non-empty.
func NewLoggerTo(cfg config.LoggingConfig, service string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	enc, opts, err := encoderFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	logger := zap.New(zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level)), opts...)
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

func encoderFor(format string) (zapcore.Encoder, []zap.Option, error) {
	switch format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec), []zap.Option{
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		}, nil
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(ec), []zap.Option{
			zap.AddCaller(),
			zap.Development(),
			zap.AddStacktrace(zapcore.WarnLevel),
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Component returns a child of logger named for a subsystem, e.g. "ledger".
// A nil logger yields a no-op logger.
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}
