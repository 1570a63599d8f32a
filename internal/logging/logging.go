// Package logging builds the zap logger shared by the CLI and the TUI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sadopc/planr/internal/config"
)

// New returns a logger for cfg. The TUI owns the terminal, so output goes
// to cfg.File; verbose switches to stderr at debug level instead.
func New(cfg config.LoggerConfig, verbose bool) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	out := "stderr"
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		out = cfg.File
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zc := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{out},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zc.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
