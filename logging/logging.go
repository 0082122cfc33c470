// Package logging configures the zap logger shared by transync packages.
//
// Diagnostic logs go to stderr and are quiet by default (warnings and
// errors only); user-facing output is printed by the ui package.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment overrides.
const (
	EnvLevel  = "TRANSYNC_LOG_LEVEL"
	EnvFormat = "TRANSYNC_LOG_FORMAT"
)

var global = zap.NewNop()

// L returns the global logger. It is a no-op logger until SetGlobal is called.
func L() *zap.Logger { return global }

// SetGlobal replaces the global logger. A nil logger restores the no-op one.
func SetGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
}

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to warn.
	Level string
	// Format is "console" or "json". Defaults to console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// FromEnv returns Options for the CLI flags, with TRANSYNC_LOG_LEVEL and
// TRANSYNC_LOG_FORMAT taking precedence when set.
func FromEnv(verbose, debug bool) Options {
	opts := Options{Level: "warn", Format: "console"}
	switch {
	case debug:
		opts.Level = "debug"
	case verbose:
		opts.Level = "info"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLevel)); v != "" {
		opts.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFormat)); v != "" {
		opts.Format = v
	}
	return opts
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		enc = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	case "json":
		enc = zapcore.NewJSONEncoder(jsonEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q (use console or json)", opts.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	logger := zap.New(core)
	if level == zapcore.DebugLevel {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level. Empty means warn.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.WarnLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
