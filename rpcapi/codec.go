// Package rpcapi is the RPC Surface: a single-method, capability-shaped
// trace export service carried over gRPC. There is no protoc-generated
// code here — the service descriptor, client stub, and wire codec below are
// hand-built against gRPC's public low-level API (grpc.ServiceDesc,
// grpc.ClientConnInterface, encoding.Codec), the same surface
// protoc-gen-go-grpc targets, with package schema's own binary format in
// place of a generated protobuf message set.
package rpcapi

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

// wireCodecName is negotiated between client and server via gRPC's
// content-subtype mechanism; every call in this package sets it explicitly
// via grpc.CallContentSubtype rather than relying on the default proto
// codec, which would not know how to handle *schema.ExportTraceServiceRequest.
const wireCodecName = "otlpcapnpwire"

func init() {
	encoding.RegisterCodec(wireCodec{})
}

// wireCodec implements google.golang.org/grpc/encoding.Codec by delegating
// to schema's Marshal/Unmarshal functions. gRPC looks this codec up by Name
// whenever a call carries the matching content-subtype, for both the
// client's outbound request and the server's outbound response (and vice
// versa for the inbound side) — no other wiring is required for the
// transport to use it.
type wireCodec struct{}

func (wireCodec) Name() string { return wireCodecName }

func (wireCodec) Marshal(v interface{}) ([]byte, error) {
	switch msg := v.(type) {
	case *schema.ExportTraceServiceRequest:
		return schema.MarshalRequest(msg)
	case *schema.ExportTraceServiceResponse:
		return schema.MarshalResponse(msg)
	default:
		return nil, fmt.Errorf("rpcapi: codec %s cannot marshal %T", wireCodecName, v)
	}
}

func (wireCodec) Unmarshal(data []byte, v interface{}) error {
	switch msg := v.(type) {
	case *schema.ExportTraceServiceRequest:
		decoded, err := schema.UnmarshalRequest(data)
		if err != nil {
			return err
		}
		*msg = *decoded
		return nil
	case *schema.ExportTraceServiceResponse:
		decoded, err := schema.UnmarshalResponse(data)
		if err != nil {
			return err
		}
		*msg = *decoded
		return nil
	default:
		return fmt.Errorf("rpcapi: codec %s cannot unmarshal into %T", wireCodecName, v)
	}
}
