package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

type paymentRepository struct {
	s *Store
}

// Create сохраняет платёж вместе с его движением по кассе.
func (r *paymentRepository) Create(ctx context.Context, write domain.PaymentWrite) error {
	payment := write.Payment

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.payments[payment.ID]; exists {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.customers[payment.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	if _, ok := r.s.safes[write.Movement.SafeID]; !ok {
		return domain.ErrSafeNotFound
	}
	if err := r.s.commit(ctx, "create payment"); err != nil {
		return err
	}

	r.s.payments[payment.ID] = payment
	r.s.movements = append(r.s.movements, write.Movement)
	r.s.enqueueLocked(write.Events, payment.CreatedAt)
	return nil
}

func (r *paymentRepository) Get(_ context.Context, id string) (domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payment, ok := r.s.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// ListByCustomer возвращает платежи клиента в хронологическом порядке.
func (r *paymentRepository) ListByCustomer(_ context.Context, customerID string) ([]domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Payment, 0)
	for _, payment := range r.s.payments {
		if payment.CustomerID == customerID {
			result = append(result, payment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ domain.PaymentRepository = (*paymentRepository)(nil)
