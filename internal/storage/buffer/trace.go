package buffer

import "log"

// tracing gates debug logging of replacer state transitions. Off by
// default; flip with SetTracing(true) or the cmd/arraydb -arc.trace flag.
var tracing = false

func SetTracing(enabled bool) {
	tracing = enabled
}

func trace(format string, args ...any) {
	if !tracing {
		return
	}
	log.Printf(format, args...)
}
