package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/cart"
	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
)

// CreateOrderInput: оформленная корзина с задатком.
type CreateOrderInput struct {
	CustomerID string
	UserID     string
	Lines      []cart.Line
	// ClientTotal: итог, посчитанный клиентом; если задан, обязан совпасть с пересчётом.
	ClientTotal *decimal.Decimal
	Deposit     decimal.Decimal
	// SafeID обязателен при Deposit > 0.
	SafeID string
}

// CreateOrder сохраняет заказ, списывает остатки и, если есть задаток, проводит его по кассе.
// Все изменения применяются одной транзакцией. Повторный вызов создаёт второй заказ.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	defer s.writeStarted(metrics.OperationCreateOrder)()

	order, write, err := s.prepareOrder(ctx, in)
	if err != nil {
		s.recordFailure(metrics.OperationCreateOrder, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"customer_id": in.CustomerID,
			"user_id":     in.UserID,
		}).Warn("order rejected")
		return domain.Order{}, err
	}

	created, err := s.repos.Orders.Create(ctx, write)
	if err != nil {
		s.recordFailure(metrics.OperationCreateOrder, err)
		s.logger.WithError(err).WithField("order_id", order.ID).Error("order write failed")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(created.TotalAmount, created.Deposit, created.Units())
	}
	s.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.Number,
		"customer_id":  created.CustomerID,
		"total":        created.TotalAmount.String(),
		"deposit":      created.Deposit.String(),
	}).Info("order created")

	return created, nil
}

// prepareOrder проверяет вход и ссылки до открытия транзакции и собирает запись.
func (s *Service) prepareOrder(ctx context.Context, in CreateOrderInput) (domain.Order, domain.OrderWrite, error) {
	items := cart.Items(in.Lines)
	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  in.CustomerID,
		UserID:      in.UserID,
		TotalAmount: domain.ComputeTotal(items),
		Deposit:     in.Deposit,
		Items:       items,
		CreatedAt:   s.now(),
	}

	errs := order.ValidateInvariants()
	if order.Deposit.IsPositive() && in.SafeID == "" {
		errs = append(errs, domain.ErrSafeRequired)
	}
	if len(errs) > 0 {
		return domain.Order{}, domain.OrderWrite{}, errors.Join(errs...)
	}

	if in.ClientTotal != nil && !in.ClientTotal.Equal(order.TotalAmount) {
		return domain.Order{}, domain.OrderWrite{}, fmt.Errorf("%w: submitted %s, computed %s",
			domain.ErrTotalMismatch, in.ClientTotal.String(), order.TotalAmount.String())
	}

	if err := s.checkReferences(ctx, order, in.SafeID); err != nil {
		return domain.Order{}, domain.OrderWrite{}, err
	}

	if order.Deposit.GreaterThan(order.TotalAmount) {
		s.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"total":    order.TotalAmount.String(),
			"deposit":  order.Deposit.String(),
		}).Warn("deposit exceeds order total")
	}

	created, err := orderCreatedMessage(order)
	if err != nil {
		return domain.Order{}, domain.OrderWrite{}, err
	}
	write := domain.OrderWrite{Order: order, Events: []domain.OutboxMessage{created}}

	if order.Deposit.IsPositive() {
		movement := domain.SafeMovement{
			ID:          uuid.NewString(),
			SafeID:      in.SafeID,
			Amount:      order.Deposit,
			Source:      domain.MovementSourceOrderDeposit,
			ReferenceID: order.ID,
			CreatedAt:   order.CreatedAt,
		}
		posted, err := movementPostedMessage(movement)
		if err != nil {
			return domain.Order{}, domain.OrderWrite{}, err
		}
		write.Deposit = &movement
		write.Events = append(write.Events, posted)
	}

	return order, write, nil
}

// checkReferences проверяет клиента, товары, кассу и остатки закрытых моделей.
// Остатки проверяются повторно в транзакции под блокировкой строки.
func (s *Service) checkReferences(ctx context.Context, order domain.Order, safeID string) error {
	if _, err := s.repos.Customers.GetCustomer(ctx, order.CustomerID); err != nil {
		return err
	}

	demands := domain.StockDemands(order.Items)
	ids := make([]string, 0, len(demands))
	for _, d := range demands {
		ids = append(ids, d.ProductID)
	}
	products, err := s.repos.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return err
	}
	for _, d := range demands {
		product, ok := products[d.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, d.ProductID)
		}
		if !product.CanSell(d.Quantity) {
			return domain.InsufficientStockError(product.ModelNo, product.Color, product.StockQty, d.Quantity)
		}
	}

	if order.Deposit.IsPositive() {
		if _, err := s.repos.Safes.GetSafe(ctx, safeID); err != nil {
			return err
		}
	}
	return nil
}
