// Package monitoring carries the diagnostic logger for the per-frame
// hot paths of the analysis pipeline. Frame-rate warnings can be muted
// without touching the process-level logger.
package monitoring

import "log"

// Logf is the hot-path diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
