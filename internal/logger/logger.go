package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitcast/internal/constants"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger
)

// Config holds logger configuration
type Config struct {
	Debug bool
	Quiet bool
	// Home is the habitcast state directory; logs go to Home/logs.
	// An empty Home disables the log file.
	Home string
	// Stderr overrides the console writer (tests).
	Stderr io.Writer
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	console := cfg.Stderr
	if console == nil {
		console = os.Stderr
	}

	writer := console
	if cfg.Home != "" {
		logDir := filepath.Join(cfg.Home, constants.LogDirName)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, constants.LogFileName),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(console, fileWriter)
	}

	level := log.InfoLevel
	switch {
	case cfg.Debug:
		level = log.DebugLevel
	case cfg.Quiet:
		level = log.WarnLevel
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})

	return nil
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
