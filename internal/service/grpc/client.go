package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// Client: типизированный клиент SalesService поверх JSON-кодека.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient оборачивает готовое соединение.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "CreateOrder", req, opts)
}

func (c *Client) GetOrder(ctx context.Context, req *GetOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "GetOrder", req, opts)
}

func (c *Client) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	return invoke[ListOrdersResponse](ctx, c, "ListOrders", req, opts)
}

func (c *Client) GetInvoice(ctx context.Context, req *GetOrderRequest, opts ...grpc.CallOption) (*InvoiceResponse, error) {
	return invoke[InvoiceResponse](ctx, c, "GetInvoice", req, opts)
}

func (c *Client) RecordPayment(ctx context.Context, req *RecordPaymentRequest, opts ...grpc.CallOption) (*PaymentResponse, error) {
	return invoke[PaymentResponse](ctx, c, "RecordPayment", req, opts)
}

func (c *Client) GetPayment(ctx context.Context, req *GetPaymentRequest, opts ...grpc.CallOption) (*PaymentResponse, error) {
	return invoke[PaymentResponse](ctx, c, "GetPayment", req, opts)
}

func (c *Client) CustomerBalance(ctx context.Context, req *CustomerBalanceRequest, opts ...grpc.CallOption) (*CustomerBalanceResponse, error) {
	return invoke[CustomerBalanceResponse](ctx, c, "CustomerBalance", req, opts)
}

func (c *Client) SearchProducts(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*SearchProductsResponse, error) {
	return invoke[SearchProductsResponse](ctx, c, "SearchProducts", req, opts)
}

func (c *Client) ListCustomers(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*CustomersResponse, error) {
	return invoke[CustomersResponse](ctx, c, "ListCustomers", req, opts)
}

func (c *Client) SearchCustomers(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*CustomersResponse, error) {
	return invoke[CustomersResponse](ctx, c, "SearchCustomers", req, opts)
}

func (c *Client) SafeBalance(ctx context.Context, req *SafeBalanceRequest, opts ...grpc.CallOption) (*SafeBalanceResponse, error) {
	return invoke[SafeBalanceResponse](ctx, c, "SafeBalance", req, opts)
}

func (c *Client) SafeHistory(ctx context.Context, req *SafeHistoryRequest, opts ...grpc.CallOption) (*SafeHistoryResponse, error) {
	return invoke[SafeHistoryResponse](ctx, c, "SafeHistory", req, opts)
}

func (c *Client) MovementOrigin(ctx context.Context, req *MovementOriginRequest, opts ...grpc.CallOption) (*MovementOriginResponse, error) {
	return invoke[MovementOriginResponse](ctx, c, "MovementOrigin", req, opts)
}

func (c *Client) ListSafes(ctx context.Context, req *ListSafesRequest, opts ...grpc.CallOption) (*ListSafesResponse, error) {
	return invoke[ListSafesResponse](ctx, c, "ListSafes", req, opts)
}

func (c *Client) EmployeeSales(ctx context.Context, req *PeriodRequest, opts ...grpc.CallOption) (*EmployeeSalesResponse, error) {
	return invoke[EmployeeSalesResponse](ctx, c, "EmployeeSales", req, opts)
}

func (c *Client) InventoryMovement(ctx context.Context, req *PeriodRequest, opts ...grpc.CallOption) (*InventoryMovementResponse, error) {
	return invoke[InventoryMovementResponse](ctx, c, "InventoryMovement", req, opts)
}

func (c *Client) SafeBalanceHistory(ctx context.Context, req *PeriodRequest, opts ...grpc.CallOption) (*SafeBalanceHistoryResponse, error) {
	return invoke[SafeBalanceHistoryResponse](ctx, c, "SafeBalanceHistory", req, opts)
}
