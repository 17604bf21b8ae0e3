// Package logger is the process-wide leveled logger.
//
// Call sites use printf-style helpers (Infof, Warnf, ...). Records are
// emitted through a log/slog text handler so that output stays parseable.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level is the verbosity threshold. Lower values are more verbose.
type Level int

const (
	// LevelTrace enables per-byte engine and reducer traces.
	LevelTrace Level = iota
	// LevelDebug enables verbose logs intended for debugging.
	LevelDebug
	// LevelInfo is the default.
	LevelInfo
	// LevelWarn enables only warnings and errors.
	LevelWarn
	// LevelError enables only error logs.
	LevelError
)

// slogTrace sits below slog.LevelDebug so trace records sort naturally.
const slogTrace = slog.Level(-8)

var (
	mu      sync.RWMutex
	level   = LevelInfo
	leveler = new(slog.LevelVar)
	out     io.Writer = os.Stderr
	log     = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: leveler,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelTrace:
		return slogTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SetLevel sets the global threshold.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	leveler.Set(l.slog())
}

// SetOutput replaces the destination writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	log = newLogger(w)
}

// Writer returns the current destination writer.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// Enabled reports whether a record at l would be written.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	lg := log
	mu.RUnlock()
	lg.Log(context.Background(), l.slog(), fmt.Sprintf(format, args...))
}

// Tracef logs at TRACE level.
func Tracef(format string, args ...any) { logf(LevelTrace, format, args...) }

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }

// Infof logs at INFO level.
func Infof(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warnf logs at WARN level.
func Warnf(format string, args ...any) { logf(LevelWarn, format, args...) }

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }
