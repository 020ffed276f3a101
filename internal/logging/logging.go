// Package logging builds the process logger. The CLI logs human-readable
// lines to stderr so stdout stays clean for command output; an optional
// JSON file sink with rotation serves long-running serve sessions.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where and how verbosely the process logs.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`
	// File, when set, adds a rotating JSON sink at this path.
	File string `yaml:"file"`
	// MaxSizeMB rotates the file sink when it reaches this size.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups bounds how many rotated files are kept.
	MaxBackups int `yaml:"max_backups"`
	// MaxAgeDays drops rotated files older than this.
	MaxAgeDays int `yaml:"max_age_days"`
	// Quiet drops the console sink, leaving only the file sink if any.
	Quiet bool `yaml:"quiet"`
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the logger from config. With every sink disabled it returns a
// nop logger, which keeps the engine silent when embedded as a library.
func New(cfg Config) *zap.Logger {
	level := parseLevel(cfg.Level)
	var cores []zapcore.Core

	if !cfg.Quiet {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		maxAge := cfg.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 7
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    maxSize,
				MaxBackups: maxBackups,
				MaxAge:     maxAge,
			}),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...))
}
