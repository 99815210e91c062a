// Package log is a thin façade over go-lager so the rest of this module
// refers to a local name instead of importing the vendor package directly
// everywhere; this mirrors how the teacher's trace and mon packages call
// straight into lager.Trace()/.Warn()/.Fail()/.Exit() with MMap-built
// key/value pairs rather than a printf-style logger.
package log

import (
	"context"

	lager "github.com/Unity-Technologies/go-lager-internal"
)

// Trace logs fine-grained, normally-suppressed detail: queue state changes,
// individual batch flush decisions. ctx is optional, matching lager's own
// variadic Trace/Warn/Fail/Exit — call with no context when none is handy.
func Trace(ctx ...context.Context) lager.Lager { return lager.Trace(ctx...) }

// Warn logs a recoverable problem: a retry, a dropped span under
// backpressure, a rejected partial-success reply.
func Warn(ctx ...context.Context) lager.Lager { return lager.Warn(ctx...) }

// Fail logs an operation that did not succeed but left the process able to
// continue: an export call that exhausted its retries.
func Fail(ctx ...context.Context) lager.Lager { return lager.Fail(ctx...) }

// Exit logs a condition this module treats as unrecoverable for the calling
// goroutine and then terminates the process, matching the teacher's use of
// lager.Exit() for configuration errors discovered at startup.
func Exit(ctx ...context.Context) lager.Lager { return lager.Exit(ctx...) }
