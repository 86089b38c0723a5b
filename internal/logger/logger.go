// Package logger builds the process-wide zap logger. Every component
// receives the same JSON logger through fx and derives a Named child from
// it, so log lines carry the owning module in the "logger" field.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root logger at the requested level. An empty level means
// info; an unparseable one is a startup error rather than a silent default.
// The result also replaces zap's globals so package-level logging from
// dependencies lands in the same stream.
func New(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:         zap.NewAtomicLevelAt(lvl),
		Encoding:      "json",
		EncoderConfig: encoder,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	return log, nil
}
