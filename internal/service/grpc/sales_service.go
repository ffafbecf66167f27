package grpcsvc

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/ledger"
	"github.com/vladislavdragonenkov/wholesale/internal/reporting"
	"github.com/vladislavdragonenkov/wholesale/internal/service/sales"
)

const (
	// ServiceName: полное имя gRPC-сервиса.
	ServiceName = "wholesale.v1.SalesService"

	// UserIDHeader: metadata с идентификатором сотрудника, если он не передан в запросе.
	UserIDHeader = "x-user-id"

	defaultListOrdersLimit = 100
)

// SalesServer: методы, которые обслуживает SalesService.
type SalesServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	GetInvoice(context.Context, *GetOrderRequest) (*InvoiceResponse, error)
	RecordPayment(context.Context, *RecordPaymentRequest) (*PaymentResponse, error)
	GetPayment(context.Context, *GetPaymentRequest) (*PaymentResponse, error)
	CustomerBalance(context.Context, *CustomerBalanceRequest) (*CustomerBalanceResponse, error)
	SearchProducts(context.Context, *SearchRequest) (*SearchProductsResponse, error)
	ListCustomers(context.Context, *SearchRequest) (*CustomersResponse, error)
	SearchCustomers(context.Context, *SearchRequest) (*CustomersResponse, error)
	SafeBalance(context.Context, *SafeBalanceRequest) (*SafeBalanceResponse, error)
	SafeHistory(context.Context, *SafeHistoryRequest) (*SafeHistoryResponse, error)
	MovementOrigin(context.Context, *MovementOriginRequest) (*MovementOriginResponse, error)
	ListSafes(context.Context, *ListSafesRequest) (*ListSafesResponse, error)
	EmployeeSales(context.Context, *PeriodRequest) (*EmployeeSalesResponse, error)
	InventoryMovement(context.Context, *PeriodRequest) (*InventoryMovementResponse, error)
	SafeBalanceHistory(context.Context, *PeriodRequest) (*SafeBalanceHistoryResponse, error)
}

// SalesService реализует gRPC API поверх сервисов продаж, журнала касс и отчётов.
type SalesService struct {
	sales   *sales.Service
	ledger  *ledger.Service
	reports *reporting.Service
	logger  *log.Entry
}

// NewSalesService конструирует сервис с зависимостями.
func NewSalesService(salesSvc *sales.Service, ledgerSvc *ledger.Service, reports *reporting.Service, logger *log.Entry) *SalesService {
	if logger == nil {
		logger = log.New().WithField("component", "sales-grpc")
	}
	return &SalesService{
		sales:   salesSvc,
		ledger:  ledgerSvc,
		reports: reports,
		logger:  logger,
	}
}

// Register регистрирует SalesService на gRPC-сервере.
func Register(server grpc.ServiceRegistrar, svc SalesServer) {
	server.RegisterService(&ServiceDesc, svc)
}

// CreateOrder оформляет корзину в заказ.
func (s *SalesService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	order, err := s.sales.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID:  req.CustomerID,
		UserID:      userID(ctx, req.UserID),
		Lines:       toCart(req.Lines, req.Picks),
		ClientTotal: req.Total,
		Deposit:     req.Deposit,
		SafeID:      req.SafeID,
	})
	if err != nil {
		return nil, s.writeError("CreateOrder", err)
	}
	return &OrderResponse{Order: toOrder(order)}, nil
}

// GetOrder возвращает заказ с позициями.
func (s *SalesService) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.sales.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, s.readError("GetOrder", err)
	}
	return &OrderResponse{Order: toOrder(order)}, nil
}

// ListOrders возвращает заказы клиента.
func (s *SalesService) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}
	limit := req.PageSize
	if limit <= 0 {
		limit = defaultListOrdersLimit
	}

	orders, err := s.sales.ListOrders(ctx, req.CustomerID, limit)
	if err != nil {
		return nil, s.readError("ListOrders", err)
	}
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrder(order))
	}
	return &ListOrdersResponse{Orders: result}, nil
}

// GetInvoice возвращает снимок накладной.
func (s *SalesService) GetInvoice(ctx context.Context, req *GetOrderRequest) (*InvoiceResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	inv, err := s.sales.Invoice(ctx, req.OrderID)
	if err != nil {
		return nil, s.readError("GetInvoice", err)
	}
	return &InvoiceResponse{Invoice: ToInvoice(inv)}, nil
}

// RecordPayment проводит оплату клиента в кассу.
func (s *SalesService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*PaymentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	payment, err := s.sales.RecordPayment(ctx, sales.RecordPaymentInput{
		CustomerID: req.CustomerID,
		SafeID:     req.SafeID,
		UserID:     userID(ctx, req.UserID),
		Amount:     req.Amount,
		Note:       req.Note,
	})
	if err != nil {
		return nil, s.writeError("RecordPayment", err)
	}
	return &PaymentResponse{Payment: toPayment(payment)}, nil
}

// GetPayment возвращает платёж.
func (s *SalesService) GetPayment(ctx context.Context, req *GetPaymentRequest) (*PaymentResponse, error) {
	if req == nil || req.PaymentID == "" {
		return nil, status.Error(codes.InvalidArgument, "payment_id is required")
	}
	payment, err := s.sales.GetPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, s.readError("GetPayment", err)
	}
	return &PaymentResponse{Payment: toPayment(payment)}, nil
}

// CustomerBalance возвращает расчёты с клиентом.
func (s *SalesService) CustomerBalance(ctx context.Context, req *CustomerBalanceRequest) (*CustomerBalanceResponse, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}
	st, err := s.sales.CustomerBalance(ctx, req.CustomerID)
	if err != nil {
		return nil, s.readError("CustomerBalance", err)
	}
	return toStatement(st), nil
}

// SearchProducts ищет модели по подстроке номера.
func (s *SalesService) SearchProducts(ctx context.Context, req *SearchRequest) (*SearchProductsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	products, err := s.sales.SearchProducts(ctx, req.Term)
	if err != nil {
		return nil, s.readError("SearchProducts", err)
	}
	result := make([]Product, 0, len(products))
	for _, p := range products {
		result = append(result, toProduct(p))
	}
	return &SearchProductsResponse{Products: result}, nil
}

// ListCustomers возвращает клиентов по алфавиту.
func (s *SalesService) ListCustomers(ctx context.Context, req *SearchRequest) (*CustomersResponse, error) {
	limit := 0
	if req != nil {
		limit = req.Limit
	}
	customers, err := s.sales.ListCustomers(ctx, limit)
	if err != nil {
		return nil, s.readError("ListCustomers", err)
	}
	return &CustomersResponse{Customers: toCustomers(customers)}, nil
}

// SearchCustomers ищет клиентов по имени, телефону или коду.
func (s *SalesService) SearchCustomers(ctx context.Context, req *SearchRequest) (*CustomersResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	customers, err := s.sales.SearchCustomers(ctx, req.Term)
	if err != nil {
		return nil, s.readError("SearchCustomers", err)
	}
	return &CustomersResponse{Customers: toCustomers(customers)}, nil
}

// SafeBalance возвращает баланс кассы, при необходимости на момент AsOf.
func (s *SalesService) SafeBalance(ctx context.Context, req *SafeBalanceRequest) (*SafeBalanceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	balance, err := s.ledger.Balance(ctx, req.SafeID, req.AsOf)
	if err != nil {
		return nil, s.readError("SafeBalance", err)
	}
	return &SafeBalanceResponse{SafeID: req.SafeID, Balance: balance}, nil
}

// SafeHistory возвращает журнал кассы с нарастающим балансом.
func (s *SalesService) SafeHistory(ctx context.Context, req *SafeHistoryRequest) (*SafeHistoryResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	entries, err := s.ledger.History(ctx, req.SafeID)
	if err != nil {
		return nil, s.readError("SafeHistory", err)
	}
	result := make([]SafeMovement, 0, len(entries))
	for _, e := range entries {
		result = append(result, toMovement(e.Movement, e.Balance))
	}
	return &SafeHistoryResponse{Movements: result}, nil
}

// MovementOrigin находит заказ или платёж, породивший движение.
func (s *SalesService) MovementOrigin(ctx context.Context, req *MovementOriginRequest) (*MovementOriginResponse, error) {
	if req == nil || req.MovementID == "" {
		return nil, status.Error(codes.InvalidArgument, "movement_id is required")
	}
	movement, origin, err := s.ledger.OriginByID(ctx, req.MovementID)
	if err != nil {
		return nil, s.readError("MovementOrigin", err)
	}
	return toOrigin(movement, origin), nil
}

// ListSafes возвращает кассы с текущими балансами.
func (s *SalesService) ListSafes(ctx context.Context, _ *ListSafesRequest) (*ListSafesResponse, error) {
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return nil, s.readError("ListSafes", err)
	}
	result := make([]SafeSummary, 0, len(balances))
	for _, b := range balances {
		result = append(result, SafeSummary{ID: b.Safe.ID, Name: b.Safe.Name, Balance: b.Balance})
	}
	return &ListSafesResponse{Safes: result}, nil
}

// EmployeeSales: отчёт по продажам сотрудников за период.
func (s *SalesService) EmployeeSales(ctx context.Context, req *PeriodRequest) (*EmployeeSalesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	rows, err := s.reports.EmployeeSales(ctx, req.From, req.To)
	if err != nil {
		return nil, s.readError("EmployeeSales", err)
	}
	return &EmployeeSalesResponse{Rows: toEmployeeSales(rows)}, nil
}

// InventoryMovement: отчёт по движению товара за период.
func (s *SalesService) InventoryMovement(ctx context.Context, req *PeriodRequest) (*InventoryMovementResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	rows, err := s.reports.InventoryMovement(ctx, req.From, req.To)
	if err != nil {
		return nil, s.readError("InventoryMovement", err)
	}
	return &InventoryMovementResponse{Rows: toProductMovements(rows)}, nil
}

// SafeBalanceHistory: баланс кассы по дням.
func (s *SalesService) SafeBalanceHistory(ctx context.Context, req *PeriodRequest) (*SafeBalanceHistoryResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	rows, err := s.reports.SafeBalanceHistory(ctx, req.SafeID, req.From, req.To)
	if err != nil {
		return nil, s.readError("SafeBalanceHistory", err)
	}
	return &SafeBalanceHistoryResponse{Days: toDailyBalances(rows)}, nil
}

// userID берёт идентификатор из запроса, иначе из metadata.
func userID(ctx context.Context, fromRequest string) string {
	if id := strings.TrimSpace(fromRequest); id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(UserIDHeader)
		if len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

// writeError переводит ошибку записи в статус. Ненайденная ссылка в команде считается ошибкой аргумента.
func (s *SalesService) writeError(operation string, err error) error {
	st := toStatus(err, false)
	s.logFailure(operation, err, st)
	return st.Err()
}

// readError переводит ошибку чтения в статус; ненайденная сущность даёт NotFound.
func (s *SalesService) readError(operation string, err error) error {
	st := toStatus(err, true)
	s.logFailure(operation, err, st)
	return st.Err()
}

func (s *SalesService) logFailure(operation string, err error, st *status.Status) {
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"code":      st.Code().String(),
	})
	if st.Code() == codes.Internal {
		entry.Error("request failed")
		return
	}
	entry.Warn("request rejected")
}

func toStatus(err error, read bool) *status.Status {
	switch {
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	case read && domain.IsNotFound(err):
		return status.New(codes.NotFound, err.Error())
	case domain.IsStorage(err):
		return status.New(codes.Internal, "storage failure")
	case errors.Is(err, domain.ErrDuplicate):
		return status.New(codes.AlreadyExists, err.Error())
	case domain.IsConflict(err):
		return status.New(codes.FailedPrecondition, err.Error())
	case domain.IsValidation(err):
		return status.New(codes.InvalidArgument, err.Error())
	default:
		return status.New(codes.Internal, "internal error")
	}
}
