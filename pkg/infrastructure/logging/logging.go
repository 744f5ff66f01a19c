// Package logging builds the structured logger used by the reconcile commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config contains the logger initialization inputs.
type Config struct {
	Level  string
	Format string
}

// New creates a logger writing to stderr so that report output on stdout stays clean.
func New(cfg Config) (*zap.Logger, error) {
	level, err := resolveLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var base zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatJSON:
		base = zap.NewProductionConfig()
		base.Encoding = FormatJSON
	case FormatConsole:
		base = zap.NewDevelopmentConfig()
		base.Encoding = FormatConsole
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	base.Level = level
	base.DisableStacktrace = true
	base.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	base.OutputPaths = []string{"stderr"}
	base.ErrorOutputPaths = []string{"stderr"}

	logger, err := base.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func resolveLevel(level string) (zap.AtomicLevel, error) {
	if strings.TrimSpace(level) == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}

	var parsed zapcore.Level
	if err := parsed.Set(level); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", level, err)
	}

	return zap.NewAtomicLevelAt(parsed), nil
}
