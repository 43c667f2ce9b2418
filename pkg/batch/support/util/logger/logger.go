// Package logger provides the leveled logger used throughout the engine.
// It wraps the standard `log` package and filters messages by level.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is used for general informational messages.
	LevelInfo
	// LevelWarn is used for recorded warnings (best-effort validation failures among others).
	LevelWarn
	// LevelError is used for error messages.
	LevelError
	// LevelFatal is used for messages that terminate the process.
	LevelFatal
)

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLogLevel sets the global log level.
// Valid values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// An unknown value falls back to INFO.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToUpper(level) {
	case "DEBUG", "TRACE":
		logLevel = LevelDebug
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL", "SILENT":
		logLevel = LevelFatal
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// SetOutput redirects log output and returns a function restoring the previous writer.
// Tests use it to capture log lines:
//
//	restore := logger.SetOutput(&buf)
//	defer restore()
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := std.Writer()
	std.SetOutput(w)
	mu.Unlock()
	return func() {
		mu.Lock()
		std.SetOutput(prev)
		mu.Unlock()
	}
}

func logf(level LogLevel, prefix, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if logLevel <= level {
		std.Printf(prefix+format, v...)
	}
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", format, v...)
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	logf(LevelInfo, "[INFO] ", format, v...)
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	logf(LevelWarn, "[WARN] ", format, v...)
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	logf(LevelError, "[ERROR] ", format, v...)
}

// Fatalf formats and outputs a FATAL level log message,
// then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := std
	mu.RUnlock()
	l.Fatalf("[FATAL] "+format, v...)
}
