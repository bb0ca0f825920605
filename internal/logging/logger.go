// Package logging builds the zap loggers used by every dishtap command.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level, encoding and destinations. With no paths the
// logger writes to stderr.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Paths  []string
}

func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.Development = false
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	if len(opts.Paths) > 0 {
		cfg.OutputPaths = opts.Paths
		cfg.ErrorOutputPaths = opts.Paths
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}

// NewFile returns a logger appending to path, falling back to a no-op
// logger if the file cannot be opened. The second value is the open error.
func NewFile(path, level, format string) (*zap.Logger, error) {
	logger, err := New(Options{Level: level, Format: format, Paths: []string{path}})
	if err != nil {
		return zap.NewNop(), err
	}
	return logger, nil
}

// Tee duplicates every entry at or above level to w in console format.
func Tee(logger *zap.Logger, w zapcore.WriteSyncer, level string) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	extra := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, ParseLevel(level))
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, extra)
	}))
}

// WithStderr tees logger to stderr at level.
func WithStderr(logger *zap.Logger, level string) *zap.Logger {
	return Tee(logger, zapcore.Lock(os.Stderr), level)
}
