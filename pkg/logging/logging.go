// Package logging provides the process-wide structured logger used by every
// other package in mcpweave. It wraps go.uber.org/zap behind a small,
// package-level singleton so call sites never have to thread a logger
// through every function signature.
package logging

import (
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

// Initialize builds the process logger. Debug mode is enabled when either
// debug is true or the MCPWEAVE_DEBUG environment variable parses as true.
// Safe to call more than once; the most recent call wins.
func Initialize(debug bool) {
	if !debug {
		if v, err := strconv.ParseBool(os.Getenv("MCPWEAVE_DEBUG")); err == nil {
			debug = v
		}
	}

	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	z, err := cfg.Build()
	if err != nil {
		// Fall back to a minimal logger rather than panic: logging must never
		// be the reason the gateway fails to start.
		z = zap.NewNop()
	}

	mu.Lock()
	logger = z.Sugar()
	mu.Unlock()
}

// Get returns the current singleton logger, lazily initializing it in
// production mode if Initialize was never called.
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Initialize(false)
	return Get()
}

// With returns a child logger carrying the given structured key/value pairs.
func With(kv ...any) *zap.SugaredLogger {
	return Get().With(kv...)
}

// Sync flushes any buffered log entries. Best-effort: errors are ignored
// since most terminals return harmless "invalid argument" on Sync.
func Sync() {
	_ = Get().Sync()
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) { Get().Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...any) { Get().Infof(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...any) { Get().Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...any) { Get().Errorf(format, args...) }

// Fatalf logs at fatal level and terminates the process.
func Fatalf(format string, args ...any) { Get().Fatalf(format, args...) }
