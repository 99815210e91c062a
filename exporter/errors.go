package exporter

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel errors returned by SpanExporter.Export/Shutdown. They are
// comparable with errors.Is; the worker never panics on a bad batch or a
// transport fault, following the teacher's convention of returning a plain
// error and reserving lager.Exit() for unrecoverable construction-time
// failures only.
var (
	// ErrAlreadyShutdown is returned by Export and Shutdown once the first
	// Shutdown call has moved the exporter to Draining (or Terminated).
	ErrAlreadyShutdown = errors.New("exporter: already shut down")

	// ErrBackpressure is returned synchronously by Export when the bounded
	// export queue is at capacity.
	ErrBackpressure = errors.New("exporter: export queue full")

	// ErrTransport covers a failed client.Export call other than a
	// deadline. A failed (re)connect is logged with the dial error itself
	// and is not wrapped in ErrTransport. Wrapped around the
	// underlying grpc error by classifyTransportErr; subject to retry
	// inside the worker.
	ErrTransport = errors.New("exporter: transport error")

	// ErrTimeout is a per-call RPC timeout (codes.DeadlineExceeded).
	// Wrapped around the underlying grpc error by classifyTransportErr;
	// subject to retry inside the worker.
	ErrTimeout = errors.New("exporter: rpc timeout")

	// ErrHandlerRejected marks a reply with a nonzero rejected_spans count.
	// It is logged, not returned from Export — producers never see it.
	ErrHandlerRejected = errors.New("exporter: handler rejected spans")
)

// classifyTransportErr wraps a non-nil client.Export error against
// ErrTimeout or ErrTransport so callers can distinguish the two with
// errors.Is, matching the retry/drop logging deliver does on every
// attempt. A nil err returns nil.
func classifyTransportErr(err error) error {
	if nil == err {
		return nil
	}
	if codes.DeadlineExceeded == status.Code(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// BuildError wraps a configuration problem discovered by config.Builder.Build,
// surfaced to the caller of Build rather than retried.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string { return "exporter: build error: " + e.Reason }
