package exporter

import "sync/atomic"

// state is the exporter's lifecycle, stored as an int32 so reads from any
// producer goroutine never race with the worker's transitions.
type state int32

const (
	stateConstructed state = iota
	stateReady
	stateDraining
	stateTerminated
)

// stateBox holds the state cell behind a pointer, so every ExporterHandle
// value that carries the same *stateBox sees the same lifecycle state.
type stateBox struct {
	v int32
}

func newStateBox() *stateBox { return &stateBox{v: int32(stateConstructed)} }

func (b *stateBox) load() state { return state(atomic.LoadInt32(&b.v)) }

// transition sets the state unconditionally; callers are responsible for
// only calling it along the legal Constructed→Ready→Draining→Terminated
// path, which in this package is only ever done from the worker goroutine
// or under the shutdown call's own idempotency check.
func (b *stateBox) transition(to state) { atomic.StoreInt32(&b.v, int32(to)) }

// compareAndTransition is used by Shutdown to claim the Ready/Constructed
// → Draining edge exactly once.
func (b *stateBox) compareAndTransition(from, to state) bool {
	return atomic.CompareAndSwapInt32(&b.v, int32(from), int32(to))
}
