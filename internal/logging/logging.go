// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zap logger used for operational events.
// Per-file progress is plain text on stdout; everything logged here goes
// to stderr.
package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// New builds a logger from cfg. An empty level means info; an unknown
// format is an error.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		l, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	zapConfig.Level = level

	switch cfg.Format {
	case "", "console":
		zapConfig.Encoding = "console"
	case "json":
		zapConfig.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format %q: use console or json", cfg.Format)
	}

	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.With(zap.String("service", "material-normalizer")), nil
}

// Diagnostic returns zap fields describing d.
func Diagnostic(d types.Diagnostic) []zap.Field {
	fields := []zap.Field{
		zap.String("code", string(d.Code)),
		zap.String("severity", string(d.Severity)),
		zap.String("path", d.Path),
		zap.Int("document", d.Document),
	}
	if d.Line > 0 {
		fields = append(fields, zap.Int("line", d.Line))
	}
	if d.Field != "" {
		fields = append(fields, zap.String("field", d.Field))
	}
	return fields
}
