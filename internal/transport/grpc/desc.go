package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "vending.v1.VendingMachineService"

// Full method names of the vending machine service.
const (
	RegisterProductMethod   = "/" + serviceName + "/RegisterProduct"
	UnregisterProductMethod = "/" + serviceName + "/UnregisterProduct"
	AddItemMethod           = "/" + serviceName + "/AddItem"
	BuyItemMethod           = "/" + serviceName + "/BuyItem"
	GetLaneMethod           = "/" + serviceName + "/GetLane"
	ListLanesMethod         = "/" + serviceName + "/ListLanes"
	GetStatsMethod          = "/" + serviceName + "/GetStats"
	GetMostPopularMethod    = "/" + serviceName + "/GetMostPopular"
	GetCatalogMethod        = "/" + serviceName + "/GetCatalog"
)

// VendingMachineServer is the server API for the vending machine service.
// Messages are protobuf well-known types so no generated code is needed.
type VendingMachineServer interface {
	RegisterProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnregisterProduct(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	AddItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	BuyItem(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetLane(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListLanes(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetMostPopular(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetCatalog(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// RegisterVendingMachineServer registers srv with the gRPC server.
func RegisterVendingMachineServer(s grpc.ServiceRegistrar, srv VendingMachineServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the vending machine service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*VendingMachineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterProduct", Handler: unaryHandler(RegisterProductMethod, VendingMachineServer.RegisterProduct)},
		{MethodName: "UnregisterProduct", Handler: unaryHandler(UnregisterProductMethod, VendingMachineServer.UnregisterProduct)},
		{MethodName: "AddItem", Handler: unaryHandler(AddItemMethod, VendingMachineServer.AddItem)},
		{MethodName: "BuyItem", Handler: unaryHandler(BuyItemMethod, VendingMachineServer.BuyItem)},
		{MethodName: "GetLane", Handler: unaryHandler(GetLaneMethod, VendingMachineServer.GetLane)},
		{MethodName: "ListLanes", Handler: unaryHandler(ListLanesMethod, VendingMachineServer.ListLanes)},
		{MethodName: "GetStats", Handler: unaryHandler(GetStatsMethod, VendingMachineServer.GetStats)},
		{MethodName: "GetMostPopular", Handler: unaryHandler(GetMostPopularMethod, VendingMachineServer.GetMostPopular)},
		{MethodName: "GetCatalog", Handler: unaryHandler(GetCatalogMethod, VendingMachineServer.GetCatalog)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vending/v1/vending.proto",
}

// unaryHandler builds a grpc.MethodHandler that decodes into a fresh Req and
// runs call through the server interceptor chain.
func unaryHandler[Req any, Resp any, PReq interface {
	*Req
}](fullMethod string, call func(VendingMachineServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VendingMachineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VendingMachineServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
