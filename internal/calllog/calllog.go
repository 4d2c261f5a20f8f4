// Package calllog appends a human-readable audit record of every model
// call to one file per calendar day. The files are an operational
// artifact: nothing in the system ever reads them back.
package calllog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultLogDir is used when the LOG_DIR environment variable is unset.
	DefaultLogDir = "logs"
	// LogDirEnvVar overrides the log directory.
	LogDirEnvVar = "LOG_DIR"

	timestampFormat = "2006-01-02 15:04:05"
	dateFormat      = "20060102"
)

// Log writes append-only call records, rolling over to a new file when the
// calendar day changes. Write failures are reported to the operational
// logger and otherwise swallowed: audit logging never fails a call.
type Log struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	file    *os.File
	fileDay string
}

// New creates a call log writing under dir. An empty dir falls back to the
// LOG_DIR environment variable, then to DefaultLogDir.
func New(dir string, logger *slog.Logger) (*Log, error) {
	if dir == "" {
		dir = os.Getenv(LogDirEnvVar)
	}
	if dir == "" {
		dir = DefaultLogDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Log{dir: dir, logger: logger}, nil
}

// Dir returns the directory holding the daily log files.
func (l *Log) Dir() string {
	return l.dir
}

// Prompt records the full prompt text sent to the model.
func (l *Log) Prompt(prompt string) {
	l.write("INFO", "PROMPT: "+prompt)
}

// TokenEstimate records the advisory token count for a prompt.
func (l *Log) TokenEstimate(count int) {
	l.write("INFO", fmt.Sprintf("Estimated token count: %d", count))
}

// Response records the full response text, whether live or cached.
func (l *Log) Response(response string) {
	l.write("INFO", "RESPONSE: "+response)
}

// Error records a failure detail for a call attempt or a degraded cache
// operation.
func (l *Log) Error(msg string) {
	l.write("ERROR", msg)
}

// Close closes the current day's file, if open.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileDay = ""
	return err
}

func (l *Log) write(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if err := l.ensureFile(now); err != nil {
		l.logger.Warn("Failed to open call log file", "error", err)
		return
	}

	line := fmt.Sprintf("%s - %s - %s\n", now.Format(timestampFormat), level, msg)
	if _, err := l.file.WriteString(line); err != nil {
		l.logger.Warn("Failed to append call log record", "error", err)
	}
}

// ensureFile opens the file for the current day, rolling over when the
// date changes. Caller holds mu.
func (l *Log) ensureFile(now time.Time) error {
	day := now.Format(dateFormat)
	if l.file != nil && l.fileDay == day {
		return nil
	}

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			l.logger.Warn("Failed to close previous call log file", "error", err)
		}
		l.file = nil
	}

	path := filepath.Join(l.dir, fmt.Sprintf("llm_calls_%s.log", day))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	l.file = f
	l.fileDay = day
	return nil
}
