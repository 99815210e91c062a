package rpcapi

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Unity-Technologies/trace-exporter-go/internal/envcfg"
)

// Default dial-backoff parameters. The client retries a failed dial with
// exponentially doubling delay starting at 1ms, giving up once the total
// elapsed time would exceed the dial timeout.
const (
	dialBackoffInitial = time.Millisecond
	dialBackoffCap     = time.Second
)

// defaultDialTimeout is the overall budget for DialWithBackoff before it
// gives up and returns an error; SPAN_EXPORTER_TIMEOUT overrides it.
func defaultDialTimeout() time.Duration {
	return envcfg.Duration(30*time.Second, "SPAN_EXPORTER_TIMEOUT")
}

// defaultCallTimeout is the per-Export-call deadline. §6 and §4.3 name two
// overlapping families of override variables (the worker-facing
// CAPNP_EXPORTER_RPC_* names and the operator-facing OTEL_EXPORTER_CAPNP_*
// names); both are honored, traces-specific before blanket, worker-facing
// before operator-facing.
func defaultCallTimeout() time.Duration {
	return envcfg.Duration(10*time.Second,
		"CAPNP_EXPORTER_RPC_TRACES_TIMEOUT",
		"CAPNP_EXPORTER_RPC_TIMEOUT",
		"OTEL_EXPORTER_CAPNP_TRACES_TIMEOUT",
		"OTEL_EXPORTER_CAPNP_TIMEOUT",
	)
}

// noDelayDialer is a net.Dialer wrapper that sets TCP_NODELAY on every
// connection it establishes, the client-side counterpart of
// noDelayListener. Small, latency-sensitive Export requests should not sit
// behind Nagle's algorithm waiting to coalesce with a next write that may
// never come.
type noDelayDialer struct {
	d net.Dialer
}

func (nd *noDelayDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := nd.d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// DialWithBackoff establishes a grpc.ClientConn to addr, retrying the
// initial TCP handshake with exponentially doubling backoff (capped at
// dialBackoffCap) until it succeeds or the overall timeout elapses. gRPC's
// own connection management takes over once the dial succeeds; this
// backoff only covers getting the first connection up, mirroring the
// distilled connection-lifecycle rule that a client build call fails fast
// rather than blocking forever on an endpoint that never comes up.
func DialWithBackoff(ctx context.Context, addr string, timeout time.Duration) (*grpc.ClientConn, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout()
	}
	dialer := &noDelayDialer{}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := dialBackoffInitial
	var lastErr error
	for {
		attemptCtx, attemptCancel := context.WithTimeout(deadlineCtx, backoff+100*time.Millisecond)
		conn, err := grpc.DialContext(attemptCtx, addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithContextDialer(dialer.DialContext),
			grpc.WithBlock(),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(wireCodecName)),
		)
		attemptCancel()
		if err == nil {
			return conn, nil
		}
		lastErr = err

		select {
		case <-deadlineCtx.Done():
			return nil, fmt.Errorf("rpcapi: dial %s: timed out after %s: %w", addr, timeout, lastErr)
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > dialBackoffCap {
			backoff = dialBackoffCap
		}
	}
}

// noDelayListener wraps a net.Listener so every accepted connection has
// TCP_NODELAY set, the server-side counterpart of noDelayDialer. Modeled on
// the stdlib net/http tcpKeepAliveListener idiom: a minimal Listener
// wrapper that tweaks one socket option per accepted connection and
// otherwise delegates everything.
type noDelayListener struct {
	net.Listener
}

func (l noDelayListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// WrapListener applies the TCP_NODELAY accept-time behavior to an existing
// listener, for callers (package receiver) that construct their own
// net.Listener before handing it to a grpc.Server.
func WrapListener(l net.Listener) net.Listener {
	return noDelayListener{Listener: l}
}

// CallTimeout returns a context derived from ctx with the per-call Export
// deadline applied, along with its cancel func. Call sites must always
// invoke the returned cancel to release the timer.
func CallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultCallTimeout())
}
