package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const orderServiceName = "portal.order.v1.OrderService"

// OrderServiceServer is the server API for the order service.
type OrderServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	UpdateOrderStatus(context.Context, *UpdateOrderStatusRequest) (*OrderResponse, error)
	UpdatePayment(context.Context, *UpdatePaymentRequest) (*OrderResponse, error)
	ApplyDiscount(context.Context, *ApplyDiscountRequest) (*OrderResponse, error)
	DeleteOrder(context.Context, *DeleteOrderRequest) (*DeleteOrderResponse, error)
}

func fullMethod(name string) string {
	return "/" + orderServiceName + "/" + name
}

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](name string, call func(OrderServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrderServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(OrderServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateOrder", OrderServiceServer.CreateOrder),
		unaryHandler("GetOrder", OrderServiceServer.GetOrder),
		unaryHandler("ListOrders", OrderServiceServer.ListOrders),
		unaryHandler("UpdateOrderStatus", OrderServiceServer.UpdateOrderStatus),
		unaryHandler("UpdatePayment", OrderServiceServer.UpdatePayment),
		unaryHandler("ApplyDiscount", OrderServiceServer.ApplyDiscount),
		unaryHandler("DeleteOrder", OrderServiceServer.DeleteOrder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portal/order/v1/order.json",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}
