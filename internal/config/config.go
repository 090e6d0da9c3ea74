// Package config carries the flag surface of a single fhttp run and builds
// the logger matching its verbosity.
package config

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mirrors the CLI flags. The zero value is a sensible default run:
// prompting enabled, no timeout, execute rather than print curl.
type Config struct {
	NoPrompt   bool
	Verbose    int
	Quiet      bool
	PrintPaths bool
	TimeoutMs  int64
	Curl       bool
	Out        string
}

// PromptMissingEnvVars reports whether unresolved env vars should be asked
// for interactively instead of failing the run.
func (c Config) PromptMissingEnvVars() bool {
	return !c.NoPrompt
}

// Verbosity is 0 when quiet, otherwise the -v count plus one.
func (c Config) Verbosity() int {
	if c.Quiet {
		return 0
	}
	return c.Verbose + 1
}

// Timeout is the per-request timeout; zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// NewLogger builds the diagnostic logger for this run. Diagnostics go to
// stderr; stdout belongs to response bodies.
func NewLogger(c Config) *zap.SugaredLogger {
	var level zapcore.Level
	switch c.Verbosity() {
	case 0:
		level = zapcore.ErrorLevel
	case 1:
		level = zapcore.WarnLevel
	case 2:
		level = zapcore.InfoLevel
	default:
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
