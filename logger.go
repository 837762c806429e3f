package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LeveledLogger wraps a logrus logger with the service's numeric log levels
type LeveledLogger struct {
	logger   *logrus.Logger
	logLevel LogLevel
}

// NewLeveledLogger creates a new leveled logger writing to out
func NewLeveledLogger(out io.Writer, level LogLevel) *LeveledLogger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	l := &LeveledLogger{logger: logger}
	l.SetLevel(level)
	return l
}

func (level LogLevel) logrusLevel() logrus.Level {
	switch level {
	case LogLevelNone:
		return logrus.PanicLevel
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Debug logs a message at DEBUG level
func (l *LeveledLogger) Debug(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

// Info logs a message at INFO level
func (l *LeveledLogger) Info(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

// Warn logs a message at WARN level
func (l *LeveledLogger) Warn(format string, v ...interface{}) {
	l.logger.Warnf(format, v...)
}

// Error logs a message at ERROR level
func (l *LeveledLogger) Error(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

// Printf provides compatibility with standard logger - logs at INFO level
func (l *LeveledLogger) Printf(format string, v ...interface{}) {
	l.Info(format, v...)
}

// Fatalf logs a fatal error and exits
func (l *LeveledLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(format, v...)
}

// SetLevel changes the log level
func (l *LeveledLogger) SetLevel(level LogLevel) {
	l.logLevel = level
	l.logger.SetLevel(level.logrusLevel())
}

// GetLevel returns the current log level
func (l *LeveledLogger) GetLevel() LogLevel {
	return l.logLevel
}

// DebugCAN logs CAN frame details at DEBUG level with formatting
func (l *LeveledLogger) DebugCAN(direction string, id uint32, data []byte, length uint8) {
	if l.logLevel < LogLevelDebug {
		return
	}

	var sb strings.Builder
	for i := 0; i < int(length) && i < len(data) && i < 8; i++ {
		fmt.Fprintf(&sb, "%02X ", data[i])
	}
	l.logger.WithField("dir", direction).
		Debugf("CAN %s: ID=0x%03X Len=%d Data=[%s]", direction, id, length, sb.String())
}
