package session

import "log"

// Logf receives soft warnings such as degenerate joint geometry or a
// detector failure on a single frame. It defaults to log.Printf.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces Logf. A nil f discards warnings.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
