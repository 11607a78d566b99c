// Package logger holds the process-wide structured logger. Records are
// encoded by zap; packages receive the *slog.Logger front end.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

var (
	base   *zap.Logger
	logger *slog.Logger
	mu     sync.RWMutex
)

// Options configures the global logger.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Output defaults to stderr. The MCP stdio transport owns stdout.
	Output io.Writer
	// JSON selects zap's production JSON encoder instead of the console one.
	JSON bool
}

// Init initializes the global structured logger and makes it the slog default.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out)), zapLevel(ParseLevel(opts.Level)))

	z := zap.New(core)
	l := slog.New(zapslog.NewHandler(core))

	mu.Lock()
	base, logger = z, l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l >= slog.LevelError:
		return zapcore.ErrorLevel
	case l >= slog.LevelWarn:
		return zapcore.WarnLevel
	case l >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// L returns the global logger instance
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return Init(Options{})
	}
	return l
}

// Z returns the zap logger behind L.
func Z() *zap.Logger {
	L()
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	z := base
	mu.RUnlock()
	if z == nil {
		return nil
	}
	return z.Sync()
}

// Info is a shorthand for L().Info
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Error is a shorthand for L().Error
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Debug is a shorthand for L().Debug
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Warn is a shorthand for L().Warn
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}
