// Package logging provides the process-wide structured logger used by every
// command and worker. It wraps zerolog the way the CLI's --debug/--verbose/
// --silent/--log flags expect: one global logger, reconfigured once at
// startup from parsed flags, then read concurrently by everything else.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config mirrors the subset of global CLI flags that affect logging.
type Config struct {
	// Debug sets the level to debug.
	Debug bool
	// Verbose sets the level to trace, overriding Debug.
	Verbose bool
	// Silent raises the level to error, suppressing info/warn.
	Silent bool
	// File, if non-empty, duplicates output to this path in addition to
	// stderr. Empty means stderr only.
	File string
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init reconfigures the global logger from cfg. Safe to call once at
// startup; not safe to call concurrently with logging calls.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	switch {
	case cfg.Verbose:
		level = zerolog.TraceLevel
	case cfg.Debug:
		level = zerolog.DebugLevel
	case cfg.Silent:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05Z07:00"

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	log = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// SetLevelString parses a level name ("debug", "warn", ...) and sets it
// globally.
func SetLevelString(level string) {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return
	}
	zerolog.SetGlobalLevel(l)
}

// With returns a child logger builder seeded with the global logger's
// fields, for packages that want a component-scoped logger.
//
//	log := logging.With().Str("component", "fetcher").Logger()
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return log.With()
}

func Trace() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Trace() }
func Debug() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Debug() }
func Info() *zerolog.Event  { mu.RLock(); defer mu.RUnlock(); return log.Info() }
func Warn() *zerolog.Event  { mu.RLock(); defer mu.RUnlock(); return log.Warn() }
func Error() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Error() }
func Fatal() *zerolog.Event { mu.RLock(); defer mu.RUnlock(); return log.Fatal() }

// Err is shorthand for Error().Err(err).
func Err(err error) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error().Err(err)
}
