package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// unary строит обработчик метода для ServiceDesc по типизированной функции.
func unary[Req any, Resp any](method string, call func(SalesServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SalesServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SalesServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc описывает SalesService для grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SalesServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateOrder", SalesServer.CreateOrder),
		unary("GetOrder", SalesServer.GetOrder),
		unary("ListOrders", SalesServer.ListOrders),
		unary("GetInvoice", SalesServer.GetInvoice),
		unary("RecordPayment", SalesServer.RecordPayment),
		unary("GetPayment", SalesServer.GetPayment),
		unary("CustomerBalance", SalesServer.CustomerBalance),
		unary("SearchProducts", SalesServer.SearchProducts),
		unary("ListCustomers", SalesServer.ListCustomers),
		unary("SearchCustomers", SalesServer.SearchCustomers),
		unary("SafeBalance", SalesServer.SafeBalance),
		unary("SafeHistory", SalesServer.SafeHistory),
		unary("MovementOrigin", SalesServer.MovementOrigin),
		unary("ListSafes", SalesServer.ListSafes),
		unary("EmployeeSales", SalesServer.EmployeeSales),
		unary("InventoryMovement", SalesServer.InventoryMovement),
		unary("SafeBalanceHistory", SalesServer.SafeBalanceHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wholesale/v1/sales.proto",
}
