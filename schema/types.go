// Package schema defines the in-memory span data model (the producer-facing
// shape described in the exporter's data model section) and the
// deterministic encoder that turns it into the wire format consumed by the
// RPC transport in package rpcapi.
//
// Encoding is pure: given the same SpanRecord values, EncodeSpan always
// produces the same bytes. Nothing in this package performs I/O, retries,
// or logging; callers (exporter, receiver) own those concerns.
package schema

import "time"

// Kind mirrors the OpenTelemetry span kind. The zero value, KindUnspecified,
// is never produced by EncodeSpan for a populated SpanRecord; it exists only
// so an unset Kind field is distinguishable from a deliberately-Internal one.
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindInternal
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

// StatusCode mirrors the wire status codes in §6.
type StatusCode uint8

const (
	StatusUnset StatusCode = iota
	StatusOk
	StatusError
)

// Status is Unset, Ok, or Error with a message. The wire message carries
// Description only when Code == StatusError; EncodeSpan writes an empty
// message for the other two codes whatever Description holds.
type Status struct {
	Code        StatusCode
	Description string
}

// AttributeValue is a tagged union over the value kinds OTel attributes may
// carry. Exactly one of the typed fields is meaningful, selected by Kind.
// Values of kind AttrUnsupported carry no payload and are encoded as an
// empty string by EncodeValue, matching the "unknown tags write the empty
// string" rule.
type AttributeValue struct {
	Kind  AttrKind
	Bool  bool
	I64   int64
	F64   float64
	Str   string
	Array []AttributeValue // only meaningful when Kind == AttrArray
}

// AttrKind tags an AttributeValue.
type AttrKind uint8

const (
	AttrUnsupported AttrKind = iota
	AttrBool
	AttrI64
	AttrF64
	AttrString
	AttrArray
)

// Attribute is a single ordered key/value pair. Duplicate keys within a
// list are preserved in input order; nothing in this package deduplicates
// or reorders them.
type Attribute struct {
	Key   string
	Value AttributeValue
}

// Event is a timestamped annotation attached to a span.
type Event struct {
	TimeUnixNano            uint64
	Name                    string
	Attributes              []Attribute
	DroppedAttributesCount  uint32
}

// Link references another span, possibly in another trace.
type Link struct {
	TraceID                [16]byte
	SpanID                 [8]byte
	TraceState             string
	Attributes             []Attribute
	DroppedAttributesCount uint32
	Flags                  uint32
}

// Span flag bits, per §6. Only bits 8 and 9 are assigned meaning by this
// module; bits 0-7 are the caller's W3C trace-flags and are passed through
// unexamined.
const (
	FlagContextHasIsRemote uint32 = 1 << 8
	FlagIsRemote           uint32 = 1 << 9
)

// SpanRecord is a finalized span as handed to SpanExporter.Export by the
// producer. It is consumed by value: once encoded it is dropped, never
// mutated in place (a retry resends the wire request built from it once,
// which the RPC codec marshals again on each attempt).
type SpanRecord struct {
	TraceID      [16]byte
	SpanID       [8]byte
	ParentSpanID [8]byte // all-zero when the span has no parent
	TraceState   string
	Flags        uint32
	Name         string
	Kind         Kind
	StartTimeUnixNano uint64
	EndTimeUnixNano   uint64

	Attributes []Attribute
	Events     []Event
	Links      []Link
	Status     Status

	DroppedAttributesCount uint32
	DroppedEventsCount     uint32
	DroppedLinksCount      uint32
}

// UnixNanoTime is a convenience for constructing the wire timestamp fields
// from a time.Time; a time before the Unix epoch returns an EncodingError.
// EncodeSpan takes the already-converted nanoseconds and never fails.
func UnixNanoTime(t time.Time) (uint64, error) {
	nanos := t.UnixNano()
	if nanos < 0 {
		return 0, &EncodingError{Reason: "time precedes Unix epoch"}
	}
	return uint64(nanos), nil
}

// InstrumentationScope identifies the library/version that produced a set
// of spans. Two scopes are the same ScopeSpans group iff they are equal
// under scopeKey (name, version, schema URL, and attribute contents).
type InstrumentationScope struct {
	Name       string
	Version    string // empty when absent; never encoded as omitted
	Attributes []Attribute
	SchemaURL  string

	DroppedAttributesCount uint32
}

// Resource identifies the producing entity. The same Resource snapshot is
// copied into every BatchEnvelope at admission time (see exporter.ExporterHandle).
type Resource struct {
	Attributes              []Attribute
	SchemaURL                string
	DroppedAttributesCount   uint32
}

// ScopedSpan pairs one finalized span with the InstrumentationScope of the
// tracer that produced it. A Batch is a list of these — the producer SDK
// hands the exporter a mix of spans from possibly-different scopes in one
// call, and GroupByScope is what partitions them back into ScopeSpans
// groups for the wire.
type ScopedSpan struct {
	Scope InstrumentationScope
	Span  SpanRecord
}

// Batch is the list of spans submitted in one Export call.
type Batch []ScopedSpan

// BatchEnvelope pairs a Batch with the Resource snapshot that was installed
// via SetResource at the moment Export was called. It is created at
// export-call time and consumed exactly once by the worker.
type BatchEnvelope struct {
	Batch    Batch
	Resource Resource
}

// EncodingError is returned by UnixNanoTime for a timestamp before the Unix
// epoch. EncodeSpan, EncodeResource and EncodeScope return no error. It
// never reaches the exporter worker, which therefore never retries it.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string { return "schema: encoding error: " + e.Reason }
