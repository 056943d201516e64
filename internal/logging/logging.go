// Package logging builds the process logger from the logging config section.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/msageha/abiprep/internal/model"
)

// New returns a production zap logger writing to stderr. verbose forces the
// debug level regardless of cfg.Level.
func New(cfg model.LoggingConfig, verbose bool) (*zap.Logger, error) {
	config, err := Config(cfg, verbose)
	if err != nil {
		return nil, err
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Config maps the logging section onto a zap.Config.
func Config(cfg model.LoggingConfig, verbose bool) (zap.Config, error) {
	config := zap.NewProductionConfig()

	switch cfg.Format {
	case "", "json":
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return zap.Config{}, fmt.Errorf("logging.format: unknown format %q (want json or console)", cfg.Format)
	}

	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return config, nil
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("logging.level: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	return config, nil
}
