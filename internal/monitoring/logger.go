package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute
// it.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf logs a non-fatal condition (missing analysis column, unknown filter
// column, truncated chart). It shares the sink installed by SetLogger.
var Warnf = func(format string, v ...interface{}) {
	Logf("WARN: "+format, v...)
}

// Errorf logs a failure that was contained rather than propagated, such as a
// single location failing inside comparison mode.
var Errorf = func(format string, v ...interface{}) {
	Logf("ERROR: "+format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
