// Package common provides shared utilities for Nestegg
package common

import (
	"os"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

const logTimeFormat = "2006-01-02T15:04:05Z07:00"

// discardWriter implements writers.IWriter and discards all output.
// Used by NewSilentLogger to prevent dispatch to globally-registered writers.
type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *discardWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *discardWriter) GetFilePath() string                   { return "" }
func (w *discardWriter) Close() error                          { return nil }

// NewLogger creates a console-only logger at the given level. Console output
// goes to stderr: when the MCP transport is stdio, stdout carries the
// protocol stream and must stay clean.
func NewLogger(level string) *Logger {
	l := arbor.NewLogger().
		WithConsoleWriter(consoleWriterConfig()).
		WithLevelFromString(level)
	return &Logger{ILogger: l}
}

// NewLoggerFromConfig creates a logger with the outputs named in the
// configuration. Unknown output names are ignored.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console", "file"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch out {
		case "console":
			l = l.WithConsoleWriter(consoleWriterConfig())
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg))
		}
	}

	return &Logger{ILogger: l.WithLevelFromString(level)}
}

// NewSilentLogger creates a logger that discards all output.
// Uses a discardWriter to prevent fallthrough to globally-registered writers.
func NewSilentLogger() *Logger {
	arborLogger := arbor.NewLogger().WithWriters([]writers.IWriter{&discardWriter{}})
	return &Logger{ILogger: arborLogger}
}

// WithCorrelationId returns a new Logger with a correlation ID set.
// Used by the HTTP middleware to trace a request through all layers.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

func consoleWriterConfig() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		Writer:     os.Stderr,
		TimeFormat: logTimeFormat,
	}
}

func fileWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	filePath := cfg.FilePath
	if filePath == "" {
		filePath = "logs/nestegg.log"
	}
	maxSize := int64(cfg.MaxSizeMB) * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 500 * 1024
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 20
	}
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		TimeFormat: logTimeFormat,
	}
}
