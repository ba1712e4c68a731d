// Package logger builds the service-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Config holds logger construction options.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// Unrecognized values fall back to info.
	Level string

	// FilePath, when set, adds a size-rotated file writer next to stdout.
	FilePath string

	// Service and Version are stamped on every event.
	Service string
	Version string
}

// New builds a logger writing JSON to stdout, and to a rotated file when
// configured.
func New(cfg Config) zerolog.Logger {
	writers := []io.Writer{os.Stdout}
	if cfg.FilePath != "" {
		writers = append(writers, fileWriter(cfg.FilePath))
	}

	out := writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}

	logger := zerolog.New(out).
		With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger().
		Level(ParseLevel(cfg.Level))

	return logger
}

// ParseLevel maps a level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// fileWriter returns a size-rotated file writer.
func fileWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}
