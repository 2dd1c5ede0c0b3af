package logging

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "FWFLEET_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks FWFLEET_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// parseLevel maps a level name to a zap level. Unknown names fall back to
// info, since the caller asked for output explicitly.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use this with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until Initialize is called, so CLI output stays clean
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogHTTPRequest logs an outgoing request to the management endpoint
func LogHTTPRequest(method, url string, bodyLen int) {
	Debug("HTTP request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("body_length", bodyLen),
	)
}

// LogHTTPResponse logs the endpoint's answer to a request
func LogHTTPResponse(method, url string, statusCode int, elapsed time.Duration) {
	Debug("HTTP response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
	)
}

// LogStateChange logs a run state transition
func LogStateChange(from, to string) {
	Info("Run state changed",
		zap.String("from", from),
		zap.String("to", to),
	)
}

// LogPayload logs a firmware payload that is about to be uploaded
func LogPayload(position int, path string, size int, digest string) {
	Info("Firmware payload loaded",
		zap.Int("position", position),
		zap.String("path", path),
		zap.Int("size", size),
		zap.String("blake3", digest),
	)
}

// LogDeviceResult logs the terminal outcome of one device.
// Errors log at warn so a failed device stands out without aborting anything.
func LogDeviceResult(device string, outcome string, status int, detail string, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("device", device),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}
	if status != 0 {
		fields = append(fields, zap.Int("status_code", status))
	}
	if detail != "" {
		fields = append(fields, zap.String("detail", truncate(detail, 512)))
	}

	if outcome == "error" {
		Warn("Device installation finished", fields...)
		return
	}
	Info("Device installation finished", fields...)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
