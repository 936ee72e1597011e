// Package logger holds the process-wide structured logger shared by every engine package.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

// Get returns the shared logger, creating it on first use.
//
// Returns:
//   - *log.Logger: the engine logger
func Get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "prism",
			Level:           log.InfoLevel,
		})
	})
	return singleton
}

// SetLevel parses a level name ("debug", "info", "warn", "error", "fatal") and applies it.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - error: error if the name is not a known level
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Get().SetLevel(lvl)
	return nil
}

// SetOutput redirects the shared logger, mostly useful to silence or capture logs in tests.
//
// Parameters:
//   - w: the destination writer
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// With returns a child logger carrying the given key/value pairs on every entry.
//
// Parameters:
//   - keyvals: alternating keys and values
//
// Returns:
//   - *log.Logger: the child logger
func With(keyvals ...interface{}) *log.Logger {
	return Get().With(keyvals...)
}

// Debug logs msg at debug level on the shared logger. Hidden unless the level is lowered.
func Debug(msg string, keyvals ...interface{}) {
	Get().Helper()
	Get().Debug(msg, keyvals...)
}

// Info logs msg at info level on the shared logger.
func Info(msg string, keyvals ...interface{}) {
	Get().Helper()
	Get().Info(msg, keyvals...)
}

// Warn logs msg at warn level on the shared logger.
func Warn(msg string, keyvals ...interface{}) {
	Get().Helper()
	Get().Warn(msg, keyvals...)
}

// Error logs msg at error level on the shared logger.
func Error(msg string, keyvals ...interface{}) {
	Get().Helper()
	Get().Error(msg, keyvals...)
}
