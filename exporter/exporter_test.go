package exporter

import (
	"errors"
	"testing"

	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

// newTestHandle builds an ExporterHandle with no worker goroutine attached,
// so Export/Shutdown's synchronous, producer-facing behavior can be
// exercised deterministically without a network connection.
func newTestHandle(capacity int) *ExporterHandle {
	return &ExporterHandle{
		exportQueue:   make(chan schema.BatchEnvelope, capacity),
		shutdownQueue: make(chan struct{}, shutdownQueueCapacity),
		state:         newStateBox(),
		workerDone:    make(chan struct{}),
	}
}

func TestExport_SucceedsWhileConstructed(t *testing.T) {
	h := newTestHandle(1)
	if err := h.Export(schema.Batch{}); err != nil {
		t.Fatalf("Export in Constructed state: %v", err)
	}
}

// S4: filling the queue to capacity causes the next Export to return
// ErrBackpressure synchronously.
func TestExport_S4BackpressureAtCapacity(t *testing.T) {
	h := newTestHandle(32)
	for i := 0; i < 32; i++ {
		if err := h.Export(schema.Batch{}); err != nil {
			t.Fatalf("Export %d: unexpected error %v", i, err)
		}
	}
	if err := h.Export(schema.Batch{}); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("33rd Export: got %v, want ErrBackpressure", err)
	}
}

func TestExport_ReturnsAlreadyShutdownAfterDrainStarts(t *testing.T) {
	h := newTestHandle(4)
	h.state.transition(stateDraining)
	if err := h.Export(schema.Batch{}); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("Export after Draining: got %v, want ErrAlreadyShutdown", err)
	}

	h.state.transition(stateTerminated)
	if err := h.Export(schema.Batch{}); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("Export after Terminated: got %v, want ErrAlreadyShutdown", err)
	}
}

// Property 5: shutdown is idempotent — the state-transition claim only
// ever succeeds once.
func TestShutdown_IdempotentStateTransition(t *testing.T) {
	h := newTestHandle(4)
	close(h.workerDone) // simulate the worker having already exited

	if !h.state.compareAndTransition(stateConstructed, stateDraining) {
		t.Fatal("first transition to Draining should succeed")
	}
	if h.state.compareAndTransition(stateConstructed, stateDraining) ||
		h.state.compareAndTransition(stateReady, stateDraining) {
		t.Fatal("second transition to Draining should not be claimable")
	}
}

func TestSetResource_IsVisibleToSubsequentExport(t *testing.T) {
	h := newTestHandle(1)
	want := schema.Resource{SchemaURL: "https://example.test/schema"}
	h.SetResource(want)

	if err := h.Export(schema.Batch{{Scope: schema.InstrumentationScope{Name: "svc"}}}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	env := <-h.exportQueue
	if env.Resource.SchemaURL != want.SchemaURL {
		t.Errorf("resource snapshot mismatch: got %q want %q", env.Resource.SchemaURL, want.SchemaURL)
	}
}
