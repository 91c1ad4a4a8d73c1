// Package logger emits pipeline trace output for the datatalk CLI.
// Tracing is off by default and switched on with --verbose; everything
// goes to stderr so command output stays clean for piping.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level string

const (
	levelDebug level = "debug"
	levelInfo  level = "info"
	levelWarn  level = "warn"
)

var (
	mu      sync.RWMutex
	enabled bool
	out     io.Writer = os.Stderr
)

// SetVerbose switches trace output on or off.
func SetVerbose(on bool) {
	mu.Lock()
	enabled = on
	mu.Unlock()
}

// IsVerbose reports whether trace output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetOutput redirects trace output away from stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func emit(lv level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	fmt.Fprintf(out, "%-5s| %s\n", lv, fmt.Sprintf(format, args...))
}

// Debug traces fine-grained pipeline steps.
func Debug(format string, args ...any) {
	emit(levelDebug, format, args...)
}

// Info traces the major stages of a command.
func Info(format string, args ...any) {
	emit(levelInfo, format, args...)
}

// Warn traces recoverable problems, degraded collaborators mostly.
func Warn(format string, args ...any) {
	emit(levelWarn, format, args...)
}

// Section marks the start of a named stage in the trace.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	fmt.Fprintf(out, "\n-- %s --\n", name)
}
