package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "orders.v1.ExtractionService"

const (
	MethodExtract      = "/" + ServiceName + "/Extract"
	MethodGetOrder     = "/" + ServiceName + "/GetOrder"
	MethodListOrders   = "/" + ServiceName + "/ListOrders"
	MethodExportOrders = "/" + ServiceName + "/ExportOrders"
)

// ExtractionServer is the server API. Requests and responses are protobuf Structs so the
// service needs no generated message types.
type ExtractionServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func unaryHandler(method string, call func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: unaryHandler(MethodExtract, ExtractionServer.Extract)},
		{MethodName: "GetOrder", Handler: unaryHandler(MethodGetOrder, ExtractionServer.GetOrder)},
		{MethodName: "ListOrders", Handler: unaryHandler(MethodListOrders, ExtractionServer.ListOrders)},
		{MethodName: "ExportOrders", Handler: unaryHandler(MethodExportOrders, ExtractionServer.ExportOrders)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orders/v1/extraction.proto",
}

// ExtractionClient calls the service over a client connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodExtract, in, opts...)
}

func (c *ExtractionClient) GetOrder(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetOrder, in, opts...)
}

func (c *ExtractionClient) ListOrders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListOrders, in, opts...)
}

func (c *ExtractionClient) ExportOrders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodExportOrders, in, opts...)
}
