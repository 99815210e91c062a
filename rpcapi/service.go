package rpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/Unity-Technologies/trace-exporter-go/schema"
)

// serviceName matches the fully-qualified RPC name a protoc-generated stub
// would have produced for this service; it only needs to be stable between
// this package's own client and server, nothing outside this module ever
// parses it.
const serviceName = "tracereceiver.v1.TraceService"

// TraceServiceClient is the capability surface a SpanExporter worker calls
// through: one method, Export, taking the already-grouped wire request and
// returning the server's (possibly partial) acknowledgement.
type TraceServiceClient interface {
	Export(ctx context.Context, in *schema.ExportTraceServiceRequest, opts ...grpc.CallOption) (*schema.ExportTraceServiceResponse, error)
}

type traceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTraceServiceClient wraps an already-established grpc.ClientConn (or any
// grpc.ClientConnInterface) in the Export-only capability. Every call is
// pinned to the wire codec via grpc.CallContentSubtype so it never falls
// back to gRPC's default proto codec, which does not know this package's
// types.
func NewTraceServiceClient(cc grpc.ClientConnInterface) TraceServiceClient {
	return &traceServiceClient{cc: cc}
}

func (c *traceServiceClient) Export(ctx context.Context, in *schema.ExportTraceServiceRequest, opts ...grpc.CallOption) (*schema.ExportTraceServiceResponse, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(wireCodecName)}, opts...)
	out := new(schema.ExportTraceServiceResponse)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/Export", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TraceServiceServer is implemented by whatever owns span ingestion on the
// receiving side (package receiver's default handler, or a caller-supplied
// Handler wrapped to satisfy this interface).
type TraceServiceServer interface {
	Export(ctx context.Context, in *schema.ExportTraceServiceRequest) (*schema.ExportTraceServiceResponse, error)
}

func exportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(schema.ExportTraceServiceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TraceServiceServer).Export(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Export",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TraceServiceServer).Export(ctx, req.(*schema.ExportTraceServiceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc is the hand-built equivalent of what protoc-gen-go-grpc would
// emit for a one-method service: a name, the server interface it binds to,
// and a single unary method descriptor. grpc.Server uses this purely via
// reflection-free dispatch on FullMethod, so no .proto file or generated
// registry is needed for the transport to work.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TraceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Export",
			Handler:    exportHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/service.go",
}

// RegisterTraceServiceServer binds srv to s under the Export method,
// mirroring the generated RegisterXxxServer helper pattern.
func RegisterTraceServiceServer(s grpc.ServiceRegistrar, srv TraceServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}
