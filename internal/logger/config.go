package logger

import (
	"io"

	"go.uber.org/zap/zapcore"
)

// Level is a log level.
type Level = zapcore.Level

const (
	// DebugLevel is a debug log level.
	DebugLevel = zapcore.DebugLevel
	// InfoLevel is an info log level.
	InfoLevel = zapcore.InfoLevel
	// ErrorLevel is an error log level.
	ErrorLevel = zapcore.ErrorLevel
)

// Config is the configuration for the logger.
type Config struct {
	// Output is where the log messages are written to. If it is nil, all the messages are discarded.
	Output io.Writer
	Level  Level
	// StripTime disables time variance in logger.
	StripTime bool
}
