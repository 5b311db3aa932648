// Package logger builds the zap loggers used across the console.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "CONSOLE"
	FormatJSON    = "JSON"

	ComponentProcessor = "processor"
	ComponentFilter    = "filter"
	ComponentHandler   = "handler"
	ComponentStack     = "stack"
	ComponentStrategy  = "strategy"
	ComponentCli       = "cli"
)

var (
	initOnce sync.Once
)

func levelOf(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a zap logger writing to stderr with the given level and format.
func New(level, format string) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToUpper(format) == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(levelOf(level)))
	return zap.New(core, zap.AddCaller())
}

// Initialize replaces the zap globals once. Later calls are no-ops.
func Initialize(level, format string) {
	initOnce.Do(func() {
		l := New(level, format)
		zap.ReplaceGlobals(l)
		l.Debug("Logger initialized", zap.String("level", level), zap.String("format", format))
	})
}

// For returns the global sugared logger named after component.
// Before Initialize is called this is zap's no-op logger, which keeps tests quiet.
func For(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}
