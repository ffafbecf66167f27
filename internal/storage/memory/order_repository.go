package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// orderRepository: in-memory реализация OrderRepository поверх общего Store.
type orderRepository struct {
	s *Store
}

// Create проверяет ссылки и остатки, затем одним шагом применяет заказ,
// списание остатков, движение задатка и события outbox.
func (r *orderRepository) Create(ctx context.Context, write domain.OrderWrite) (domain.Order, error) {
	order := write.Order

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.orders[order.ID]; exists {
		return domain.Order{}, domain.ErrDuplicate
	}
	if _, ok := r.s.customers[order.CustomerID]; !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	// Подготавливаем новые остатки, не трогая состояние.
	updated := make(map[string]domain.Product)
	for _, demand := range domain.StockDemands(order.Items) {
		product, ok := r.s.products[demand.ProductID]
		if !ok {
			return domain.Order{}, domain.ErrProductNotFound
		}
		if !product.CanSell(demand.Quantity) {
			return domain.Order{}, domain.InsufficientStockError(product.ModelNo, product.Color, product.StockQty, demand.Quantity)
		}
		product.StockQty -= demand.Quantity
		product.UpdatedAt = order.CreatedAt
		updated[product.ID] = product
	}
	if write.Deposit != nil {
		if _, ok := r.s.safes[write.Deposit.SafeID]; !ok {
			return domain.Order{}, domain.ErrSafeNotFound
		}
	}

	items := make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		product := r.s.products[item.ProductID]
		item.ModelNo = product.ModelNo
		item.Color = product.Color
		item.Description = product.Description
		items[i] = item
	}

	if err := r.s.commit(ctx, "create order"); err != nil {
		return domain.Order{}, err
	}

	r.s.orderSeq++
	order.Number = r.s.orderSeq
	order.Items = items
	r.s.orders[order.ID] = order
	for id, product := range updated {
		r.s.products[id] = product
	}
	if write.Deposit != nil {
		r.s.movements = append(r.s.movements, *write.Deposit)
	}
	r.s.enqueueLocked(write.Events, order.CreatedAt)

	return cloneOrder(order), nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByCustomer возвращает заказы клиента, ограничивая выборку limit (если >0).
func (r *orderRepository) ListByCustomer(_ context.Context, customerID string, limit int) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.s.orders {
		if order.CustomerID != customerID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Number > result[j].Number
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// ListBetween возвращает заказы с from <= CreatedAt < to по возрастанию номера.
func (r *orderRepository) ListBetween(_ context.Context, from, to time.Time) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.s.orders {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = append([]domain.OrderItem(nil), src.Items...)
	return dst
}

var _ domain.OrderRepository = (*orderRepository)(nil)
