// Package receiver is the accept-loop side of the RPC transport: it binds
// a listen address, wraps an embedder-supplied Handler as the service's
// single capability, and runs the accept loop on its own goroutine so
// New/Start never block the caller — the Go equivalent of the original
// receiver's dedicated OS thread running a single-threaded Tokio runtime.
package receiver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/Unity-Technologies/trace-exporter-go/internal/log"
	"github.com/Unity-Technologies/trace-exporter-go/rpcapi"
	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

const callQueueCapacity = 32

// Receiver binds an address and dispatches every inbound Export call to a
// Handler. The zero value is not usable; construct with New.
type Receiver struct {
	addr     string
	handler  Handler
	server   *grpc.Server
	listener net.Listener

	calls        chan callRequest
	stopDispatch chan struct{}
	dispatchDone chan struct{}
}

// New resolves addr (deferred to net.Listen at Start time, matching the
// original's addr-resolution-at-construction, accept-at-start split) and
// binds handler as the capability every client call is routed to. A nil
// handler is replaced with DefaultHandler.
func New(addr string, handler Handler) *Receiver {
	if handler == nil {
		handler = DefaultHandler()
	}
	return &Receiver{
		addr:         addr,
		handler:      handler,
		calls:        make(chan callRequest, callQueueCapacity),
		stopDispatch: make(chan struct{}, 1),
		dispatchDone: make(chan struct{}),
	}
}

// callRequest carries one inbound Export call from its serving goroutine
// (one per gRPC stream) to the single dispatchLoop goroutine that actually
// owns the Handler.
type callRequest struct {
	ctx    context.Context
	req    *schema.ExportTraceServiceRequest
	result chan callResult
}

type callResult struct {
	resp *schema.ExportTraceServiceResponse
	err  error
}

// traceServiceAdapter satisfies rpcapi.TraceServiceServer. gRPC dispatches
// each inbound call on its own per-stream goroutine; the adapter never
// touches the Handler directly — it hands the call to the dispatchLoop
// goroutine over calls and blocks for the reply, so the Handler itself is
// still invoked from exactly one goroutine at a time, matching the
// single-threaded invocation guarantee embedders are entitled to rely on.
// Both waits stay cancel-safe against the call's own context.
type traceServiceAdapter struct {
	calls chan<- callRequest
}

func (a traceServiceAdapter) Export(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error) {
	result := make(chan callResult, 1)
	select {
	case a.calls <- callRequest{ctx: ctx, req: req, result: result}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-result:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatchLoop is the single goroutine that ever calls Handler.Export. It
// mirrors the exporter's own worker goroutine: one consumer draining a
// bounded channel, with a dedicated signal channel (rather than closing
// calls, which producer goroutines still hold a reference to) to stop.
func (r *Receiver) dispatchLoop() {
	defer close(r.dispatchDone)
	for {
		select {
		case c := <-r.calls:
			resp, err := r.handler.Export(c.ctx, c.req)
			c.result <- callResult{resp: resp, err: err}
		case <-r.stopDispatch:
			return
		}
	}
}

// Start binds the listen socket, applies TCP_NODELAY to every accepted
// connection via rpcapi.WrapListener, starts the dispatch goroutine, and
// runs grpc.Server.Serve on a new goroutine. It returns immediately; the
// returned channel receives the accept loop's terminal error exactly once
// (nil after a graceful Stop) — supplementing the distilled spec's
// join-handle return with an error value, since an embedding process needs
// to know whether the accept loop exited cleanly or crashed.
func (r *Receiver) Start() (*Receiver, <-chan error) {
	done := make(chan error, 1)

	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		done <- err
		close(done)
		return r, done
	}
	r.listener = rpcapi.WrapListener(ln)

	go r.dispatchLoop()

	r.server = grpc.NewServer()
	rpcapi.RegisterTraceServiceServer(r.server, traceServiceAdapter{calls: r.calls})

	go func() {
		err := r.server.Serve(r.listener)
		if err == grpc.ErrServerStopped {
			err = nil
		}
		done <- err
		close(done)
	}()

	return r, done
}

// Addr returns the bound listener's address, useful when addr was passed
// as "host:0" and the OS chose the port. Returns nil if Start has not been
// called or the listen failed.
func (r *Receiver) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop drains in-flight handler calls up to ctx's deadline (falling back
// to a 30s deadline when ctx carries none) via GracefulStop, then forces a
// hard Stop if the deadline elapses first. GracefulStop refuses new calls
// at once; the deadline only bounds how long in-flight calls may run. After
// a hard Stop, calls still running have their connections closed and get
// no reply.
func (r *Receiver) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	deadline, ok := ctx.Deadline()
	wait := 30 * time.Second
	if ok {
		wait = time.Until(deadline)
	}

	stopped := make(chan struct{})
	go func() {
		r.server.GracefulStop()
		close(stopped)
	}()

	var stopErr error
	select {
	case <-stopped:
	case <-time.After(wait):
		log.Warn().MMap("receiver: graceful stop deadline elapsed, forcing stop")
		r.server.Stop()
		stopErr = ctx.Err()
	}

	select {
	case r.stopDispatch <- struct{}{}:
	default:
	}
	<-r.dispatchDone
	return stopErr
}
