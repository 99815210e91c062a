package schema

import "strconv"

// ScopeGroup is one InstrumentationScope and every span from the envelope
// that belongs to it, in original order.
type ScopeGroup struct {
	Scope InstrumentationScope
	Spans []SpanRecord
}

// scopeKey is the equality the spec names for ScopeSpans grouping: identity
// over (name, version, schema_url, attributes). Attributes participate in
// the key via a deterministic, order-sensitive encoding — two scopes whose
// attribute lists differ only in order are treated as distinct, which
// matches "equality over attributes" read literally (the spec does not say
// attribute order is insignificant for scope identity, only that span
// encoding preserves attribute order).
func scopeKey(s InstrumentationScope) string {
	key := s.Name + "\x00" + s.Version + "\x00" + s.SchemaURL
	for _, a := range s.Attributes {
		key += "\x00" + a.Key + "\x00" + strconv.Itoa(int(a.Value.Kind)) + "\x00" + attrValueKey(a.Value)
	}
	return key
}

func attrValueKey(v AttributeValue) string {
	switch v.Kind {
	case AttrBool:
		if v.Bool {
			return "1"
		}
		return "0"
	case AttrI64:
		return strconv.FormatInt(v.I64, 10)
	case AttrF64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case AttrString:
		return v.Str
	case AttrArray:
		out := ""
		for _, e := range v.Array {
			out += attrValueKey(e) + ","
		}
		return out
	default:
		return ""
	}
}

// GroupByScope implements the §3 batch-grouping rule: spans in env are
// partitioned by InstrumentationScope identity into ScopeSpans groups.
// Iteration order across the returned groups is stable within one call —
// first-seen order — rather than the "unspecified" order the spec permits;
// a deterministic choice makes this function's output reproducible for
// tests without weakening any documented guarantee.
func GroupByScope(env BatchEnvelope) []ScopeGroup {
	order := make([]string, 0, 4)
	byKey := make(map[string]*ScopeGroup, 4)
	for _, sp := range env.Batch {
		k := scopeKey(sp.Scope)
		g, ok := byKey[k]
		if !ok {
			g = &ScopeGroup{Scope: sp.Scope}
			byKey[k] = g
			order = append(order, k)
		}
		g.Spans = append(g.Spans, sp.Span)
	}
	groups := make([]ScopeGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, *byKey[k])
	}
	return groups
}
