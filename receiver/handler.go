package receiver

import (
	"context"

	"github.com/Unity-Technologies/trace-exporter-go/internal/log"
	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

// Handler is the embedder-supplied capability bound to the receiver's
// single RPC method: read the request, optionally process its spans, and
// report how many (if any) were rejected. The receiver never retries a
// call on the handler's behalf — retry is entirely the client's
// responsibility, per the delivery semantics.
type Handler interface {
	Export(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error)

func (f HandlerFunc) Export(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error) {
	return f(ctx, req)
}

// spanCount totals every span across every ResourceSpans/ScopeSpans group
// in a request, for the default handler's log line and accept-all reply.
func spanCount(req *schema.ExportTraceServiceRequest) int {
	n := 0
	for _, rs := range req.ResourceSpans {
		for _, ss := range rs.ScopeSpans {
			n += len(ss.Spans)
		}
	}
	return n
}

// DefaultHandler counts the spans in each request and always replies with
// rejected_spans=0, logging a Trace-level line describing what arrived —
// the Go equivalent of the original receiver's stdout dump of each
// received span, adapted to this module's structured logger and to log at
// Trace level rather than always printing.
func DefaultHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error) {
		count := spanCount(req)
		log.Trace(ctx).MMap("receiver: received spans",
			"spans", count, "resource_spans", len(req.ResourceSpans))
		return &schema.ExportTraceServiceResponse{
			PartialSuccess: schema.PartialSuccess{RejectedSpans: 0},
		}, nil
	})
}
