package schema

import (
	"encoding/binary"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// This file is the module's own deterministic binary wire format: fixed
// identifiers and integers are little-endian (per §6), strings and lists
// are varint-length-prefixed using protowire's varint helpers (the same
// primitive protobuf itself builds on, borrowed here instead of a full
// protobuf message set since this module does not run protoc). Every
// Marshal/Unmarshal pair here is the only place that needs to agree on
// layout; rpcapi's wire codec just calls through to these.

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func consumeU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("schema: short buffer reading uint32")
	}
	return binary.LittleEndian.Uint32(b), b[4:], nil
}

func consumeU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("schema: short buffer reading uint64")
	}
	return binary.LittleEndian.Uint64(b), b[8:], nil
}

func appendFixedBytes(b []byte, v []byte) []byte { return append(b, v...) }

func consumeFixedBytes(b []byte, n int) ([]byte, []byte, error) {
	if len(b) < n {
		return nil, nil, fmt.Errorf("schema: short buffer reading %d raw bytes", n)
	}
	out := make([]byte, n)
	copy(out, b[:n])
	return out, b[n:], nil
}

func appendString(b []byte, s string) []byte {
	return protowire.AppendString(b, s)
}

func consumeString(b []byte) (string, []byte, error) {
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", nil, fmt.Errorf("schema: malformed string: %w", protowire.ParseError(n))
	}
	return s, b[n:], nil
}

func appendVarint(b []byte, v uint64) []byte {
	return protowire.AppendVarint(b, v)
}

func consumeVarint(b []byte) (uint64, []byte, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, nil, fmt.Errorf("schema: malformed varint: %w", protowire.ParseError(n))
	}
	return v, b[n:], nil
}

func appendAnyValue(b []byte, v WireAnyValue) []byte {
	b = append(b, byte(v.Tag))
	switch v.Tag {
	case BoolTag:
		if v.Bool {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	case IntTag:
		b = appendU64(b, uint64(v.Int))
	case DoubleTag:
		b = appendU64(b, math.Float64bits(v.Double))
	case StringTag:
		b = appendString(b, v.Str)
	case BytesTag:
		b = appendVarint(b, uint64(len(v.Bytes)))
		b = appendFixedBytes(b, v.Bytes)
	case ArrayTag:
		b = appendVarint(b, uint64(len(v.Array)))
		for _, e := range v.Array {
			b = appendAnyValue(b, e)
		}
	case KVListTag:
		b = appendVarint(b, uint64(len(v.KVList)))
		for _, kv := range v.KVList {
			b = appendKeyValue(b, kv)
		}
	}
	return b
}

func consumeAnyValue(b []byte) (WireAnyValue, []byte, error) {
	if len(b) < 1 {
		return WireAnyValue{}, nil, fmt.Errorf("schema: short buffer reading value tag")
	}
	tag := AnyValueTag(b[0])
	b = b[1:]
	var (
		v   WireAnyValue
		err error
	)
	v.Tag = tag
	switch tag {
	case BoolTag:
		if len(b) < 1 {
			return v, nil, fmt.Errorf("schema: short buffer reading bool")
		}
		v.Bool = b[0] != 0
		b = b[1:]
	case IntTag:
		var u uint64
		u, b, err = consumeU64(b)
		if err != nil {
			return v, nil, err
		}
		v.Int = int64(u)
	case DoubleTag:
		var u uint64
		u, b, err = consumeU64(b)
		if err != nil {
			return v, nil, err
		}
		v.Double = math.Float64frombits(u)
	case StringTag:
		v.Str, b, err = consumeString(b)
		if err != nil {
			return v, nil, err
		}
	case BytesTag:
		var n uint64
		n, b, err = consumeVarint(b)
		if err != nil {
			return v, nil, err
		}
		v.Bytes, b, err = consumeFixedBytes(b, int(n))
		if err != nil {
			return v, nil, err
		}
	case ArrayTag:
		var n uint64
		n, b, err = consumeVarint(b)
		if err != nil {
			return v, nil, err
		}
		v.Array = make([]WireAnyValue, 0, n)
		for i := uint64(0); i < n; i++ {
			var e WireAnyValue
			e, b, err = consumeAnyValue(b)
			if err != nil {
				return v, nil, err
			}
			v.Array = append(v.Array, e)
		}
	case KVListTag:
		var n uint64
		n, b, err = consumeVarint(b)
		if err != nil {
			return v, nil, err
		}
		v.KVList = make([]WireKeyValue, 0, n)
		for i := uint64(0); i < n; i++ {
			var kv WireKeyValue
			kv, b, err = consumeKeyValue(b)
			if err != nil {
				return v, nil, err
			}
			v.KVList = append(v.KVList, kv)
		}
	default:
		return v, nil, fmt.Errorf("schema: unknown AnyValue tag %d", tag)
	}
	return v, b, nil
}

func appendKeyValue(b []byte, kv WireKeyValue) []byte {
	b = appendString(b, kv.Key)
	return appendAnyValue(b, kv.Value)
}

func consumeKeyValue(b []byte) (WireKeyValue, []byte, error) {
	var kv WireKeyValue
	var err error
	kv.Key, b, err = consumeString(b)
	if err != nil {
		return kv, nil, err
	}
	kv.Value, b, err = consumeAnyValue(b)
	if err != nil {
		return kv, nil, err
	}
	return kv, b, nil
}

func appendKeyValueList(b []byte, kvs []WireKeyValue) []byte {
	b = appendVarint(b, uint64(len(kvs)))
	for _, kv := range kvs {
		b = appendKeyValue(b, kv)
	}
	return b
}

func consumeKeyValueList(b []byte) ([]WireKeyValue, []byte, error) {
	n, b, err := consumeVarint(b)
	if err != nil {
		return nil, nil, err
	}
	out := make([]WireKeyValue, 0, n)
	for i := uint64(0); i < n; i++ {
		var kv WireKeyValue
		kv, b, err = consumeKeyValue(b)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, kv)
	}
	return out, b, nil
}

func appendStatus(b []byte, s WireStatus) []byte {
	b = append(b, byte(s.Code))
	return appendString(b, s.Message)
}

func consumeStatus(b []byte) (WireStatus, []byte, error) {
	var s WireStatus
	if len(b) < 1 {
		return s, nil, fmt.Errorf("schema: short buffer reading status code")
	}
	s.Code = StatusCode(b[0])
	b = b[1:]
	var err error
	s.Message, b, err = consumeString(b)
	return s, b, err
}

func appendEvent(b []byte, e WireEvent) []byte {
	b = appendU64(b, e.TimeUnixNano)
	b = appendString(b, e.Name)
	b = appendKeyValueList(b, e.Attributes)
	b = appendU32(b, e.DroppedAttributesCount)
	return b
}

func consumeEvent(b []byte) (WireEvent, []byte, error) {
	var e WireEvent
	var err error
	e.TimeUnixNano, b, err = consumeU64(b)
	if err != nil {
		return e, nil, err
	}
	e.Name, b, err = consumeString(b)
	if err != nil {
		return e, nil, err
	}
	e.Attributes, b, err = consumeKeyValueList(b)
	if err != nil {
		return e, nil, err
	}
	e.DroppedAttributesCount, b, err = consumeU32(b)
	return e, b, err
}

func appendLink(b []byte, l WireLink) []byte {
	b = appendFixedBytes(b, l.TraceID[:])
	b = appendFixedBytes(b, l.SpanID[:])
	b = appendString(b, l.TraceState)
	b = appendKeyValueList(b, l.Attributes)
	b = appendU32(b, l.DroppedAttributesCount)
	b = appendU32(b, l.Flags)
	return b
}

func consumeLink(b []byte) (WireLink, []byte, error) {
	var l WireLink
	var err error
	var raw []byte
	raw, b, err = consumeFixedBytes(b, 16)
	if err != nil {
		return l, nil, err
	}
	copy(l.TraceID[:], raw)
	raw, b, err = consumeFixedBytes(b, 8)
	if err != nil {
		return l, nil, err
	}
	copy(l.SpanID[:], raw)
	l.TraceState, b, err = consumeString(b)
	if err != nil {
		return l, nil, err
	}
	l.Attributes, b, err = consumeKeyValueList(b)
	if err != nil {
		return l, nil, err
	}
	l.DroppedAttributesCount, b, err = consumeU32(b)
	if err != nil {
		return l, nil, err
	}
	l.Flags, b, err = consumeU32(b)
	return l, b, err
}

func appendSpan(b []byte, s WireSpan) []byte {
	b = appendFixedBytes(b, s.TraceID[:])
	b = appendFixedBytes(b, s.SpanID[:])
	b = appendString(b, s.TraceState)
	b = appendFixedBytes(b, s.ParentSpanID[:])
	b = appendU32(b, s.Flags)
	b = appendString(b, s.Name)
	b = append(b, byte(s.Kind))
	b = appendU64(b, s.StartTimeUnixNano)
	b = appendU64(b, s.EndTimeUnixNano)
	b = appendKeyValueList(b, s.Attributes)
	b = appendU32(b, s.DroppedAttributesCount)
	b = appendVarint(b, uint64(len(s.Events)))
	for _, e := range s.Events {
		b = appendEvent(b, e)
	}
	b = appendU32(b, s.DroppedEventsCount)
	b = appendVarint(b, uint64(len(s.Links)))
	for _, l := range s.Links {
		b = appendLink(b, l)
	}
	b = appendU32(b, s.DroppedLinksCount)
	b = appendStatus(b, s.Status)
	return b
}

func consumeSpan(b []byte) (WireSpan, []byte, error) {
	var s WireSpan
	var err error
	var raw []byte

	raw, b, err = consumeFixedBytes(b, 16)
	if err != nil {
		return s, nil, err
	}
	copy(s.TraceID[:], raw)
	raw, b, err = consumeFixedBytes(b, 8)
	if err != nil {
		return s, nil, err
	}
	copy(s.SpanID[:], raw)
	s.TraceState, b, err = consumeString(b)
	if err != nil {
		return s, nil, err
	}
	raw, b, err = consumeFixedBytes(b, 8)
	if err != nil {
		return s, nil, err
	}
	copy(s.ParentSpanID[:], raw)
	s.Flags, b, err = consumeU32(b)
	if err != nil {
		return s, nil, err
	}
	s.Name, b, err = consumeString(b)
	if err != nil {
		return s, nil, err
	}
	if len(b) < 1 {
		return s, nil, fmt.Errorf("schema: short buffer reading kind")
	}
	s.Kind = Kind(b[0])
	b = b[1:]
	s.StartTimeUnixNano, b, err = consumeU64(b)
	if err != nil {
		return s, nil, err
	}
	s.EndTimeUnixNano, b, err = consumeU64(b)
	if err != nil {
		return s, nil, err
	}
	s.Attributes, b, err = consumeKeyValueList(b)
	if err != nil {
		return s, nil, err
	}
	s.DroppedAttributesCount, b, err = consumeU32(b)
	if err != nil {
		return s, nil, err
	}
	var nEvents uint64
	nEvents, b, err = consumeVarint(b)
	if err != nil {
		return s, nil, err
	}
	s.Events = make([]WireEvent, 0, nEvents)
	for i := uint64(0); i < nEvents; i++ {
		var e WireEvent
		e, b, err = consumeEvent(b)
		if err != nil {
			return s, nil, err
		}
		s.Events = append(s.Events, e)
	}
	s.DroppedEventsCount, b, err = consumeU32(b)
	if err != nil {
		return s, nil, err
	}
	var nLinks uint64
	nLinks, b, err = consumeVarint(b)
	if err != nil {
		return s, nil, err
	}
	s.Links = make([]WireLink, 0, nLinks)
	for i := uint64(0); i < nLinks; i++ {
		var l WireLink
		l, b, err = consumeLink(b)
		if err != nil {
			return s, nil, err
		}
		s.Links = append(s.Links, l)
	}
	s.DroppedLinksCount, b, err = consumeU32(b)
	if err != nil {
		return s, nil, err
	}
	s.Status, b, err = consumeStatus(b)
	return s, b, err
}

func appendScope(b []byte, s WireInstrumentationScope) []byte {
	b = appendString(b, s.Name)
	b = appendString(b, s.Version)
	b = appendKeyValueList(b, s.Attributes)
	b = appendU32(b, s.DroppedAttributesCount)
	b = appendString(b, s.SchemaURL)
	return b
}

func consumeScope(b []byte) (WireInstrumentationScope, []byte, error) {
	var s WireInstrumentationScope
	var err error
	s.Name, b, err = consumeString(b)
	if err != nil {
		return s, nil, err
	}
	s.Version, b, err = consumeString(b)
	if err != nil {
		return s, nil, err
	}
	s.Attributes, b, err = consumeKeyValueList(b)
	if err != nil {
		return s, nil, err
	}
	s.DroppedAttributesCount, b, err = consumeU32(b)
	if err != nil {
		return s, nil, err
	}
	s.SchemaURL, b, err = consumeString(b)
	return s, b, err
}

func appendResource(b []byte, r WireResource) []byte {
	b = appendKeyValueList(b, r.Attributes)
	b = appendU32(b, r.DroppedAttributesCount)
	b = appendString(b, r.SchemaURL)
	return b
}

func consumeResource(b []byte) (WireResource, []byte, error) {
	var r WireResource
	var err error
	r.Attributes, b, err = consumeKeyValueList(b)
	if err != nil {
		return r, nil, err
	}
	r.DroppedAttributesCount, b, err = consumeU32(b)
	if err != nil {
		return r, nil, err
	}
	r.SchemaURL, b, err = consumeString(b)
	return r, b, err
}

func appendScopeSpans(b []byte, ss WireScopeSpans) []byte {
	b = appendScope(b, ss.Scope)
	b = appendVarint(b, uint64(len(ss.Spans)))
	for _, s := range ss.Spans {
		b = appendSpan(b, s)
	}
	b = appendString(b, ss.SchemaURL)
	return b
}

func consumeScopeSpans(b []byte) (WireScopeSpans, []byte, error) {
	var ss WireScopeSpans
	var err error
	ss.Scope, b, err = consumeScope(b)
	if err != nil {
		return ss, nil, err
	}
	var n uint64
	n, b, err = consumeVarint(b)
	if err != nil {
		return ss, nil, err
	}
	ss.Spans = make([]WireSpan, 0, n)
	for i := uint64(0); i < n; i++ {
		var s WireSpan
		s, b, err = consumeSpan(b)
		if err != nil {
			return ss, nil, err
		}
		ss.Spans = append(ss.Spans, s)
	}
	ss.SchemaURL, b, err = consumeString(b)
	return ss, b, err
}

func appendResourceSpans(b []byte, rs WireResourceSpans) []byte {
	b = appendResource(b, rs.Resource)
	b = appendVarint(b, uint64(len(rs.ScopeSpans)))
	for _, ss := range rs.ScopeSpans {
		b = appendScopeSpans(b, ss)
	}
	b = appendString(b, rs.SchemaURL)
	return b
}

func consumeResourceSpans(b []byte) (WireResourceSpans, []byte, error) {
	var rs WireResourceSpans
	var err error
	rs.Resource, b, err = consumeResource(b)
	if err != nil {
		return rs, nil, err
	}
	var n uint64
	n, b, err = consumeVarint(b)
	if err != nil {
		return rs, nil, err
	}
	rs.ScopeSpans = make([]WireScopeSpans, 0, n)
	for i := uint64(0); i < n; i++ {
		var ss WireScopeSpans
		ss, b, err = consumeScopeSpans(b)
		if err != nil {
			return rs, nil, err
		}
		rs.ScopeSpans = append(rs.ScopeSpans, ss)
	}
	rs.SchemaURL, b, err = consumeString(b)
	return rs, b, err
}

// MarshalRequest serializes an ExportTraceServiceRequest to this module's
// wire format. It is used by rpcapi's gRPC codec and directly by tests
// exercising the round-trip property.
func MarshalRequest(req *ExportTraceServiceRequest) ([]byte, error) {
	b := make([]byte, 0, 256)
	b = appendVarint(b, uint64(len(req.ResourceSpans)))
	for _, rs := range req.ResourceSpans {
		b = appendResourceSpans(b, rs)
	}
	return b, nil
}

// UnmarshalRequest is the inverse of MarshalRequest.
func UnmarshalRequest(data []byte) (*ExportTraceServiceRequest, error) {
	n, b, err := consumeVarint(data)
	if err != nil {
		return nil, err
	}
	req := &ExportTraceServiceRequest{ResourceSpans: make([]WireResourceSpans, 0, n)}
	for i := uint64(0); i < n; i++ {
		var rs WireResourceSpans
		rs, b, err = consumeResourceSpans(b)
		if err != nil {
			return nil, err
		}
		req.ResourceSpans = append(req.ResourceSpans, rs)
	}
	return req, nil
}

// MarshalResponse serializes an ExportTraceServiceResponse.
func MarshalResponse(resp *ExportTraceServiceResponse) ([]byte, error) {
	b := make([]byte, 0, 16)
	b = appendVarint(b, resp.PartialSuccess.RejectedSpans)
	b = appendString(b, resp.PartialSuccess.ErrorMessage)
	return b, nil
}

// UnmarshalResponse is the inverse of MarshalResponse.
func UnmarshalResponse(data []byte) (*ExportTraceServiceResponse, error) {
	rejected, b, err := consumeVarint(data)
	if err != nil {
		return nil, err
	}
	msg, _, err := consumeString(b)
	if err != nil {
		return nil, err
	}
	return &ExportTraceServiceResponse{
		PartialSuccess: PartialSuccess{RejectedSpans: rejected, ErrorMessage: msg},
	}, nil
}
