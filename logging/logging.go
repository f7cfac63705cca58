package logging

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON zap logger behind the logr API. level accepts zap
// level names ("debug", "info", ...) or a logr verbosity such as "2", which
// enables V(2) lines.
func NewLogger(level string) (logr.Logger, error) {
	zapLevel, err := parseLevel(level)
	if err != nil {
		return logr.Discard(), err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("building zap logger: %w", err)
	}

	return zapr.NewLogger(zapLog), nil
}

// NewTestLogger returns a development logger that prints every verbosity.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-2))
	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zapLog)
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}

	if verbosity, err := strconv.Atoi(level); err == nil {
		if verbosity < 0 {
			return zapcore.InfoLevel, fmt.Errorf("negative log verbosity %d", verbosity)
		}
		// zapr maps logr V(n) to zap level -n
		return zapcore.Level(-verbosity), nil
	}

	return zapcore.ParseLevel(level)
}
