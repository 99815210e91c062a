package receiver

import (
	"context"
	"testing"

	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

func TestSpanCount_SumsAcrossScopeGroups(t *testing.T) {
	req := &schema.ExportTraceServiceRequest{
		ResourceSpans: []schema.WireResourceSpans{
			{ScopeSpans: []schema.WireScopeSpans{
				{Spans: make([]schema.WireSpan, 2)},
				{Spans: make([]schema.WireSpan, 1)},
			}},
			{ScopeSpans: []schema.WireScopeSpans{
				{Spans: make([]schema.WireSpan, 3)},
			}},
		},
	}
	if got := spanCount(req); got != 6 {
		t.Errorf("spanCount = %d, want 6", got)
	}
}

func TestDefaultHandler_AcceptsEveryBatch(t *testing.T) {
	h := DefaultHandler()
	req := &schema.ExportTraceServiceRequest{
		ResourceSpans: []schema.WireResourceSpans{
			{ScopeSpans: []schema.WireScopeSpans{{Spans: make([]schema.WireSpan, 2)}}},
		},
	}
	resp, err := h.Export(context.Background(), req)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if resp.PartialSuccess.RejectedSpans != 0 {
		t.Errorf("RejectedSpans = %d, want 0", resp.PartialSuccess.RejectedSpans)
	}
}

func TestHandlerFunc_AdaptsPlainFunction(t *testing.T) {
	var called bool
	h := HandlerFunc(func(ctx context.Context, req *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error) {
		called = true
		return &schema.ExportTraceServiceResponse{PartialSuccess: schema.PartialSuccess{RejectedSpans: 1}}, nil
	})

	var h2 Handler = h
	resp, err := h2.Export(context.Background(), &schema.ExportTraceServiceRequest{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !called {
		t.Error("underlying function was not invoked")
	}
	if resp.PartialSuccess.RejectedSpans != 1 {
		t.Errorf("RejectedSpans = %d, want 1", resp.PartialSuccess.RejectedSpans)
	}
}
