package config

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Log levels, lowest first.
const (
	LevelDebug int32 = iota
	LevelInfo
	LevelWarn
	LevelError
)

var logLevel atomic.Int32

func init() { logLevel.Store(LevelInfo) }

// SetLogLevel sets the process-wide level from "debug", "info", "warn" or
// "error". It also sets the stdlib logger flags.
func SetLogLevel(level string) error {
	var lv int32
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = LevelDebug
	case "", "info":
		lv = LevelInfo
	case "warn", "warning":
		lv = LevelWarn
	case "error":
		lv = LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	logLevel.Store(lv)
	if lv == LevelDebug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return nil
}

// LogLevel returns the current level.
func LogLevel() int32 { return logLevel.Load() }

// DebugEnabled reports whether debug output is on.
func DebugEnabled() bool { return logLevel.Load() <= LevelDebug }

// Debugf logs only at debug level.
func Debugf(format string, args ...any) {
	if DebugEnabled() {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

// Warnf logs at warn level and above.
func Warnf(format string, args ...any) {
	if logLevel.Load() <= LevelWarn {
		log.Output(2, "WARNING "+fmt.Sprintf(format, args...))
	}
}
