// Package log provides structured logging for reclaim.
// It writes leveled, categorized key=value entries to a log file and
// republishes every entry on a pub/sub broker so the dashboard can show
// a live feed. Logging is enabled via --debug or RECLAIM_DEBUG.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/reclaim/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Category groups related log messages.
type Category string

const (
	CatRegistry Category = "registry" // class registration and rate changes
	CatLedger   Category = "ledger"   // ledger appends and restores
	CatRecycle  Category = "recycle"  // single-exchange pipeline
	CatBatch    Category = "batch"    // batch coordination
	CatAdmin    Category = "admin"    // pause, unpause, rescue
	CatDB       Category = "db"       // sqlite operations
	CatConfig   Category = "config"   // configuration loading/saving
	CatCache    Category = "cache"    // dedup cache operations
	CatWatcher  Category = "watcher"  // ledger file watcher events
	CatUI       Category = "ui"       // dashboard updates
)

// Logger writes entries to a file and mirrors them on a broker.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the global logger.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
		if err != nil {
			initErr = err
			return
		}
		defaultLogger = &Logger{
			file:     f,
			enabled:  true,
			minLevel: LevelDebug,
			broker:   pubsub.NewBroker[string](),
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if defaultLogger == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() {
		_ = defaultLogger.file.Close()
	}, nil
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.enabled = enabled
	defaultLogger.mu.Unlock()
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.minLevel = level
	defaultLogger.mu.Unlock()
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	errVal := "<nil>"
	if err != nil {
		errVal = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", errVal))
}

func write(level Level, cat Category, msg string, fields []any) {
	l := defaultLogger
	if l == nil || !l.enabled || level < l.minLevel {
		return
	}

	// Format: 2025-12-06T10:45:00 [ERROR] [recycle] message key=value
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteString("\n")
	entry := b.String()

	l.mu.Lock()
	_, _ = l.file.WriteString(entry)
	l.mu.Unlock()

	l.broker.Publish(entry)
}

// LogListener wraps a continuous listener for log entries.
type LogListener = pubsub.Listener[string]

// NewListener creates a listener for log entries.
// The listener is cleaned up when the context is cancelled.
func NewListener(ctx context.Context) *LogListener {
	if defaultLogger == nil {
		return nil
	}
	return pubsub.NewListener(ctx, defaultLogger.broker)
}
