package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log *zap.Logger
)

// Init initializes the logger with the given log level, writing to stdout
func Init(level string) error {
	return InitWithOutput(level, "stdout")
}

// InitWithOutput initializes the logger writing to output ("stdout", "stderr" or a file path).
// The MCP stdio server logs to stderr because stdout carries the protocol.
func InitWithOutput(level, output string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""

	logger, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"app": "gitlab_helper"},
	}.Build()
	if err != nil {
		return err
	}

	Log = logger
	return nil
}

// GetLogger returns the global logger, falling back to a production logger
func GetLogger() *zap.Logger {
	if Log == nil {
		var err error
		if Log, err = zap.NewProduction(zap.WithCaller(false)); err != nil {
			panic(err)
		}
	}
	return Log
}

// Named returns the global logger scoped to a component
func Named(component string) *zap.Logger {
	return GetLogger().Named(component)
}

// Sync flushes any buffered log entries
func Sync() error {
	if Log == nil {
		return nil
	}
	return Log.Sync()
}
