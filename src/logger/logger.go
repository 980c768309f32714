package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"stock-watchlist/src/models"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels, lowest first
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var (
	outputMu sync.Mutex
	output   io.Writer = os.Stdout
	rotating *lumberjack.Logger
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *log.Logger
	level  int
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. A nil config logs everything at
// INFO and above.
func NewLogger(config *models.MConfig, name string) *Logger {
	level := LevelInfo
	if config != nil {
		level = ParseLevel(config.LogLevel)
	}

	outputMu.Lock()
	w := output
	outputMu.Unlock()

	return &Logger{
		name:   name,
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// NewWithWriter creates a Logger writing to w, mostly for tests.
func NewWithWriter(w io.Writer, name string, level int) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(w, "", 0),
		level:  level,
	}
}

// -----------------------------------------------------------------------------

// Setup points every Logger created afterwards to stdout and, when
// config.LogFile is set, to a size-rotated file as well.
func Setup(config *models.MConfig) {
	outputMu.Lock()
	defer outputMu.Unlock()

	if rotating != nil {
		rotating.Close()
		rotating = nil
	}
	output = os.Stdout

	if config == nil || config.LogFile == "" {
		return
	}
	rotating = &lumberjack.Logger{
		Filename:   config.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	output = io.MultiWriter(os.Stdout, rotating)
}

// Close flushes and closes the rotating log file, if any.
func Close() error {
	outputMu.Lock()
	defer outputMu.Unlock()
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	output = os.Stdout
	return err
}

// -----------------------------------------------------------------------------

// ParseLevel maps a config string to a level, defaulting to INFO.
func ParseLevel(s string) int {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "CRITICAL":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

// Named returns a logger sharing this one's output and level under another name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, logger: l.logger, level: l.level}
}

// -----------------------------------------------------------------------------

func (l *Logger) printf(level int, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.printf(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	Close()
	os.Exit(1)
}
