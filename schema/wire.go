package schema

// The Wire* types below mirror the §6 wire schema field-for-field. They are
// the shape the Encode* functions produce, the shape MarshalRequest writes
// from, and the decoded shape UnmarshalRequest returns;
// unlike SpanRecord/Batch (the producer-facing model) these exist purely to
// describe the bytes on the wire, so a receiver that never touches
// SpanRecord can still work entirely in terms of them.

// AnyValueTag selects the active field of a WireAnyValue, matching the
// union order in §6 exactly (bool, int, double, string, bytes, array,
// kvlist). This encoder never emits BytesTag or KVListTag — the producer
// data model has no bytes or nested-map attribute kind — but UnmarshalRequest still
// recognizes them so this module can receive wire data produced by some
// other, richer emitter.
type AnyValueTag uint8

const (
	BoolTag AnyValueTag = iota
	IntTag
	DoubleTag
	StringTag
	BytesTag
	ArrayTag
	KVListTag
)

// WireAnyValue is the decoded union value of a KeyValue.
type WireAnyValue struct {
	Tag    AnyValueTag
	Bool   bool
	Int    int64
	Double float64
	Str    string
	Bytes  []byte
	Array  []WireAnyValue // element type is uniform, per §4.1 edge cases
	KVList []WireKeyValue
}

// WireKeyValue is one decoded attribute.
type WireKeyValue struct {
	Key   string
	Value WireAnyValue
}

// WireStatus mirrors §6's Status message.
type WireStatus struct {
	Code    StatusCode
	Message string
}

// WireEvent mirrors §6's Event message.
type WireEvent struct {
	TimeUnixNano           uint64
	Name                   string
	Attributes             []WireKeyValue
	DroppedAttributesCount uint32
}

// WireLink mirrors §6's Link message.
type WireLink struct {
	TraceID                [16]byte
	SpanID                 [8]byte
	TraceState             string
	Attributes             []WireKeyValue
	DroppedAttributesCount uint32
	Flags                  uint32
}

// WireSpan mirrors §6's Span message field-for-field.
type WireSpan struct {
	TraceID               [16]byte
	SpanID                [8]byte
	TraceState            string
	ParentSpanID          [8]byte
	Flags                 uint32
	Name                  string
	Kind                  Kind
	StartTimeUnixNano     uint64
	EndTimeUnixNano       uint64
	Attributes            []WireKeyValue
	DroppedAttributesCount uint32
	Events                []WireEvent
	DroppedEventsCount    uint32
	Links                 []WireLink
	DroppedLinksCount     uint32
	Status                WireStatus
}

// WireInstrumentationScope mirrors the scope fields used by ScopeSpans.
type WireInstrumentationScope struct {
	Name                   string
	Version                string
	Attributes             []WireKeyValue
	DroppedAttributesCount uint32
	SchemaURL              string
}

// WireResource mirrors §4.1's Resource encoding: attributes, a dropped
// count, and a schema URL. It carries no entity-refs list; entity refs have
// no representation in this module.
type WireResource struct {
	Attributes             []WireKeyValue
	DroppedAttributesCount uint32
	SchemaURL              string
}

// WireScopeSpans mirrors §6's ScopeSpans message.
type WireScopeSpans struct {
	Scope     WireInstrumentationScope
	Spans     []WireSpan
	SchemaURL string
}

// WireResourceSpans mirrors §6's ResourceSpans message. This module emits
// exactly one per Export call (§4.3's "one ResourceSpans per call"
// simplification).
type WireResourceSpans struct {
	Resource   WireResource
	ScopeSpans []WireScopeSpans
	SchemaURL  string
}

// ExportTraceServiceRequest is the RPC request body: one list of
// ResourceSpans, per §6.
type ExportTraceServiceRequest struct {
	ResourceSpans []WireResourceSpans
}

// PartialSuccess mirrors §6's partial_success reply field.
type PartialSuccess struct {
	RejectedSpans uint64
	ErrorMessage  string
}

// ExportTraceServiceResponse is the RPC response body.
type ExportTraceServiceResponse struct {
	PartialSuccess PartialSuccess
}
