// Package debug provides opt-in diagnostic logging. Output is disabled
// unless enabled at build time or via the DEBUG environment variable, and
// goes to whatever writer was configured, never to stdout, so report output
// stays clean.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug can be overridden at build time:
// go build -ldflags "-X github.com/standardbeagle/declscan/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	debugMutex  sync.Mutex
	debugOutput io.Writer = os.Stderr
	verbose     bool
)

// SetOutput sets the writer for debug output. Pass nil to disable output
// entirely.
func SetOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// SetVerbose turns debug logging on at runtime, regardless of build flags
// or environment.
func SetVerbose(on bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	verbose = on
}

// Enabled reports whether debug logging is active.
func Enabled() bool {
	debugMutex.Lock()
	v := verbose
	debugMutex.Unlock()
	if v || EnableDebug == "true" {
		return true
	}
	return os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information when debug mode is enabled and a writer
// is configured.
func Printf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Log provides structured debug logging with component names.
func Log(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogScan logs scanner pipeline events.
func LogScan(format string, args ...interface{}) {
	Log("SCAN", format, args...)
}

// LogMatch logs pattern matcher events.
func LogMatch(format string, args ...interface{}) {
	Log("MATCH", format, args...)
}

// LogParse logs front-end parse events.
func LogParse(format string, args ...interface{}) {
	Log("PARSE", format, args...)
}
