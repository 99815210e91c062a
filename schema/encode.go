package schema

// EncodeResource populates a WireResource from a Resource: attributes (a
// zero-length list when there are none), the dropped count, and the schema
// URL. The wire resource has no entity-refs list.
func EncodeResource(resource Resource) WireResource {
	return WireResource{
		Attributes:             EncodeAttributes(resource.Attributes),
		DroppedAttributesCount: resource.DroppedAttributesCount,
		SchemaURL:               resource.SchemaURL,
	}
}

// EncodeScope populates a WireInstrumentationScope. A missing Version is
// already the empty string in InstrumentationScope, so this is a direct
// field copy; it exists as its own function (rather than inlining into
// EncodeScopeSpans) so tests can exercise the scope-identity mapping in
// isolation from grouping.
func EncodeScope(scope InstrumentationScope) WireInstrumentationScope {
	return WireInstrumentationScope{
		Name:                   scope.Name,
		Version:                scope.Version,
		Attributes:             EncodeAttributes(scope.Attributes),
		DroppedAttributesCount: scope.DroppedAttributesCount,
		SchemaURL:              scope.SchemaURL,
	}
}

// kindToWire maps SpanRecord.Kind to the wire Kind. The mapping is total
// and identity-shaped (§4.1's "Kind mapping" — "identity up to renaming").
func kindToWire(k Kind) Kind { return k }

// statusToWire maps Status to WireStatus per §4.1's status mapping:
// Unset→Unset, Ok→Ok, Error{d}→Error with message=d. The wire message is
// empty for every other code regardless of what Description holds, which
// is the invariant tested in §8 property 3.
func statusToWire(s Status) WireStatus {
	if s.Code == StatusError {
		return WireStatus{Code: StatusError, Message: s.Description}
	}
	return WireStatus{Code: s.Code}
}

// EncodeAttributes iterates a list of Attribute in input order and encodes
// each into a WireKeyValue. A nil or empty input still yields a non-nil,
// zero-length slice so downstream list-length invariants hold without a
// special case for "no attributes".
func EncodeAttributes(attrs []Attribute) []WireKeyValue {
	out := make([]WireKeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, WireKeyValue{Key: a.Key, Value: EncodeValue(a.Value)})
	}
	return out
}

// EncodeValue dispatches on AttributeValue.Kind. Array values recurse
// element-wise into a uniformly-typed inner list; the encoder does not
// check uniformity (per §4.1, mixed-type arrays must not occur and are the
// caller's responsibility). Unrecognized kinds — including AttrUnsupported
// — encode as the empty string, matching the wire schema's escape hatch for
// values this module cannot represent.
func EncodeValue(v AttributeValue) WireAnyValue {
	switch v.Kind {
	case AttrBool:
		return WireAnyValue{Tag: BoolTag, Bool: v.Bool}
	case AttrI64:
		return WireAnyValue{Tag: IntTag, Int: v.I64}
	case AttrF64:
		return WireAnyValue{Tag: DoubleTag, Double: v.F64}
	case AttrString:
		return WireAnyValue{Tag: StringTag, Str: v.Str}
	case AttrArray:
		elems := make([]WireAnyValue, 0, len(v.Array))
		for _, e := range v.Array {
			elems = append(elems, EncodeValue(e))
		}
		return WireAnyValue{Tag: ArrayTag, Array: elems}
	default:
		return WireAnyValue{Tag: StringTag, Str: ""}
	}
}

func encodeEvent(e Event) WireEvent {
	return WireEvent{
		TimeUnixNano:           e.TimeUnixNano,
		Name:                   e.Name,
		Attributes:             EncodeAttributes(e.Attributes),
		DroppedAttributesCount: e.DroppedAttributesCount,
	}
}

func encodeLink(l Link) WireLink {
	return WireLink{
		TraceID:                l.TraceID,
		SpanID:                 l.SpanID,
		TraceState:             l.TraceState,
		Attributes:             EncodeAttributes(l.Attributes),
		DroppedAttributesCount: l.DroppedAttributesCount,
		Flags:                  l.Flags,
	}
}

// EncodeSpan writes the fixed-size identifiers as raw bytes, copies
// trace_state, writes name and the mapped kind, writes both timestamps and
// all four dropped counts, then populates attributes, events, and links (in
// that order) before the status sub-message — the exact field order from
// §4.1.
//
// The only failure this function can produce is via the caller having
// supplied a SpanRecord whose timestamps were derived from a pre-epoch
// clock reading; EncodeSpan itself performs no time-of-day reads, so in
// practice this path is only reachable through UnixNanoTime at the call
// site, and EncodeSpan never itself returns an error.
func EncodeSpan(span SpanRecord) WireSpan {
	attrs := make([]WireKeyValue, 0, len(span.Attributes))
	attrs = append(attrs, EncodeAttributes(span.Attributes)...)

	events := make([]WireEvent, 0, len(span.Events))
	for _, e := range span.Events {
		events = append(events, encodeEvent(e))
	}

	links := make([]WireLink, 0, len(span.Links))
	for _, l := range span.Links {
		links = append(links, encodeLink(l))
	}

	return WireSpan{
		TraceID:                span.TraceID,
		SpanID:                 span.SpanID,
		TraceState:             span.TraceState,
		ParentSpanID:           span.ParentSpanID,
		Flags:                  span.Flags,
		Name:                   span.Name,
		Kind:                   kindToWire(span.Kind),
		StartTimeUnixNano:      span.StartTimeUnixNano,
		EndTimeUnixNano:        span.EndTimeUnixNano,
		Attributes:             attrs,
		DroppedAttributesCount: span.DroppedAttributesCount,
		Events:                 events,
		DroppedEventsCount:     span.DroppedEventsCount,
		Links:                  links,
		DroppedLinksCount:      span.DroppedLinksCount,
		Status:                 statusToWire(span.Status),
	}
}

// EncodeResourceSpans builds the single ResourceSpans emitted per Export
// call: one Resource and the scope groups computed by GroupByScope.
func EncodeResourceSpans(env BatchEnvelope) WireResourceSpans {
	groups := GroupByScope(env)
	scopeSpans := make([]WireScopeSpans, 0, len(groups))
	for _, g := range groups {
		spans := make([]WireSpan, 0, len(g.Spans))
		for _, s := range g.Spans {
			spans = append(spans, EncodeSpan(s))
		}
		scopeSpans = append(scopeSpans, WireScopeSpans{
			Scope: EncodeScope(g.Scope),
			Spans: spans,
		})
	}
	return WireResourceSpans{
		Resource:   EncodeResource(env.Resource),
		ScopeSpans: scopeSpans,
	}
}
