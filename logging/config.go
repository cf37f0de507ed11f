package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RotatingLogger manages rotating log files with weekly retention
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a new rotating logger instance
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, 100*1024*1024) // Default 100MB
}

// NewRotatingLoggerWithSizeLimit creates a new rotating logger with custom size limit
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// doRotate performs actual rotation (caller must hold write lock)
func (rl *RotatingLogger) doRotate(targetWeek string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	isSizeRotation := rl.maxFileSize > 0 && rl.currentSize.Load() >= rl.maxFileSize
	fileName, shouldResetSize, err := rl.findOrCreateLogFile(targetWeek, isSizeRotation)
	if err != nil {
		return err
	}

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek

	if shouldResetSize {
		rl.currentSize.Store(0)
	} else {
		if info, err := os.Stat(logPath); err == nil {
			rl.currentSize.Store(info.Size())
		}
	}

	return nil
}

// findOrCreateLogFile determines which log file to use for the current week
func (rl *RotatingLogger) findOrCreateLogFile(targetWeek string, isSizeRotation bool) (string, bool, error) {
	baseFileName := fmt.Sprintf("aura-%s.log", targetWeek)
	baseFilePath := filepath.Join(rl.logDir, baseFileName)

	if !isSizeRotation {
		if info, err := os.Stat(baseFilePath); err == nil {
			if rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
				return baseFileName, false, nil
			}
		} else {
			return baseFileName, false, nil
		}
	}

	highestNum, lastFilePath, lastSize := rl.findHighestNumberedFile(targetWeek)

	if lastFilePath != "" && lastSize < rl.maxFileSize {
		return filepath.Base(lastFilePath), false, nil
	}

	nextNum := highestNum + 1
	newFileName := fmt.Sprintf("aura-%s_%02d.log", targetWeek, nextNum)
	return newFileName, true, nil
}

// findHighestNumberedFile searches for numbered log files and returns the highest number
func (rl *RotatingLogger) findHighestNumberedFile(targetWeek string) (int, string, int64) {
	pattern := fmt.Sprintf("aura-%s_??.log", targetWeek)
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, pattern))

	highestNum := 0
	var lastPath string
	var lastSize int64

	for _, match := range matches {
		num, size := rl.parseNumberedFile(match)
		if num > highestNum {
			highestNum = num
			lastPath = match
			lastSize = size
		}
	}

	return highestNum, lastPath, lastSize
}

// parseNumberedFile extracts the sequence number and file size from a numbered log file
func (rl *RotatingLogger) parseNumberedFile(filePath string) (int, int64) {
	base := filepath.Base(filePath)

	re := regexp.MustCompile(`aura-\d{4}-W\d{2}_(\d{2})\.log$`)
	matches := re.FindStringSubmatch(base)

	if len(matches) < 2 {
		return 0, 0
	}

	num, _ := strconv.Atoi(matches[1])

	info, err := os.Stat(filePath)
	if err != nil {
		return num, 0
	}

	return num, info.Size()
}

// Write writes data to the current log file
func (rl *RotatingLogger) Write(p []byte) (n int, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	currentWeek := getWeekKey(time.Now())
	needsRotation := rl.currentWeek != currentWeek
	// Rotate when the current size is at the limit or the next write would exceed it
	if rl.maxFileSize > 0 && !needsRotation {
		currentSize := rl.currentSize.Load()
		if currentSize >= rl.maxFileSize || currentSize+int64(len(p)) > rl.maxFileSize {
			needsRotation = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if needsRotation {
		if err = rl.doRotate(currentWeek); err != nil {
			return 0, err
		}
	}

	if rl.currentFile == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err = rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes log files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	var deletedCount int

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "aura-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(rl.logDir, entry.Name())
			if err := os.Remove(fullPath); err == nil {
				deletedCount++
			}
		}
	}

	if deletedCount > 0 {
		// Console output avoids logging through the writer being cleaned up
		fmt.Printf("Cleaned up %d old log files\n", deletedCount)
	}

	return nil
}

// Close closes the rotating logger and stops background cleanup
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	timeout := 5 * time.Second
	if len(os.Args) > 0 && strings.Contains(os.Args[0], "test") {
		timeout = 100 * time.Millisecond
	}

	select {
	case <-rl.cleanupDone:
	case <-time.After(timeout):
		if timeout > 100*time.Millisecond {
			fmt.Printf("Warning: background cleanup goroutine did not shutdown gracefully\n")
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile != nil {
		return rl.currentFile.Close()
	}
	return nil
}

// SetupLogger configures slog to log to both console and rotating file
func SetupLogger(logDir string) *slog.Logger {
	return SetupLoggerWithRetention(logDir, 4, 100*1024*1024)
}

// SetupLoggerWithRetention configures slog with custom retention period and size limit
func SetupLoggerWithRetention(logDir string, retentionWeeks int, maxFileSize int64) *slog.Logger {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fall back to console only when the logs directory cannot be created
		consoleLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		consoleLogger.Error("Failed to create logs directory", "error", err)
		return consoleLogger
	}

	rotatingLogger := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)

	rotatingLogger.mu.Lock()
	rotateErr := rotatingLogger.doRotate(getWeekKey(time.Now()))
	rotatingLogger.mu.Unlock()
	if rotateErr != nil {
		consoleLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		consoleLogger.Error("Failed to initialize rotating logger", "error", rotateErr)
		return consoleLogger
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(rotatingLogger.cleanupDone)

		for {
			select {
			case <-rotatingLogger.ctx.Done():
				return
			case <-ticker.C:
				if err := rotatingLogger.cleanupOldLogs(); err != nil {
					slog.Warn("Failed to cleanup old logs during rotation", "error", err)
				}
			}
		}
	}()

	// Console gets text format, file gets JSON format for easier parsing
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	fileHandler := slog.NewJSONHandler(rotatingLogger, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	multiHandler := &multiHandler{
		handlers: []slog.Handler{consoleHandler, fileHandler},
	}

	return slog.New(multiHandler)
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
