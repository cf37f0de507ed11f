package logging

import (
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance with default rotation settings
func InitLogger(logDir string) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// InitLoggerWithRetention initializes the global logger with explicit retention and size limits
func InitLoggerWithRetention(logDir string, retentionWeeks int, maxFileSize int64) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLoggerWithRetention(logDir, retentionWeeks, maxFileSize),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	activeLogger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	activeLogger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	activeLogger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	activeLogger(slog.LevelDebug).Debug(msg, args...)
}

// activeLogger returns the configured logger, or a console fallback before InitLogger runs
func activeLogger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
