// Package ledger отвечает на вопросы о балансе касс, выводя его из журнала движений.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// Entry: движение по кассе с балансом после него.
type Entry struct {
	Movement domain.SafeMovement
	Balance  decimal.Decimal
}

// Origin: документ, породивший движение. Заполнено ровно одно из Order и Payment.
type Origin struct {
	Source  domain.MovementSource
	Order   *domain.Order
	Payment *domain.Payment
}

// SafeBalance: текущий баланс одной кассы.
type SafeBalance struct {
	Safe    domain.Safe
	Balance decimal.Decimal
}

// Service: read-model журнала касс. Ничего не пишет.
type Service struct {
	safes    domain.SafeRepository
	orders   domain.OrderRepository
	payments domain.PaymentRepository
}

// NewService создаёт сервис чтения журнала.
func NewService(safes domain.SafeRepository, orders domain.OrderRepository, payments domain.PaymentRepository) *Service {
	return &Service{safes: safes, orders: orders, payments: payments}
}

// Balance возвращает сумму движений с CreatedAt <= asOf; при nil asOf считается за всё время.
func (s *Service) Balance(ctx context.Context, safeID string, asOf *time.Time) (decimal.Decimal, error) {
	movements, err := s.movements(ctx, safeID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.FoldBalance(movements, asOf), nil
}

// History возвращает движения кассы в хронологическом порядке с нарастающим балансом.
func (s *Service) History(ctx context.Context, safeID string) ([]Entry, error) {
	movements, err := s.movements(ctx, safeID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(movements))
	balance := decimal.Zero
	for _, m := range movements {
		balance = balance.Add(m.Amount)
		entries = append(entries, Entry{Movement: m, Balance: balance})
	}
	return entries, nil
}

// Origin находит заказ или платёж, на который ссылается движение.
func (s *Service) Origin(ctx context.Context, movement domain.SafeMovement) (Origin, error) {
	switch movement.Source {
	case domain.MovementSourceOrderDeposit:
		order, err := s.orders.Get(ctx, movement.ReferenceID)
		if err != nil {
			return Origin{}, fmt.Errorf("resolve deposit %s: %w", movement.ID, err)
		}
		return Origin{Source: movement.Source, Order: &order}, nil
	case domain.MovementSourcePayment:
		payment, err := s.payments.Get(ctx, movement.ReferenceID)
		if err != nil {
			return Origin{}, fmt.Errorf("resolve payment %s: %w", movement.ID, err)
		}
		return Origin{Source: movement.Source, Payment: &payment}, nil
	default:
		return Origin{}, fmt.Errorf("movement %s has unknown source %q: %w", movement.ID, movement.Source, domain.ErrValidation)
	}
}

// OriginByID загружает движение по ID и разрешает его источник.
func (s *Service) OriginByID(ctx context.Context, movementID string) (domain.SafeMovement, Origin, error) {
	movement, err := s.safes.GetMovement(ctx, movementID)
	if err != nil {
		return domain.SafeMovement{}, Origin{}, err
	}
	origin, err := s.Origin(ctx, movement)
	return movement, origin, err
}

// Balances возвращает текущий баланс каждой кассы.
func (s *Service) Balances(ctx context.Context) ([]SafeBalance, error) {
	safes, err := s.safes.ListSafes(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]SafeBalance, 0, len(safes))
	for _, safe := range safes {
		movements, err := s.safes.Movements(ctx, safe.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, SafeBalance{Safe: safe, Balance: domain.FoldBalance(movements, nil)})
	}
	return result, nil
}

func (s *Service) movements(ctx context.Context, safeID string) ([]domain.SafeMovement, error) {
	if safeID == "" {
		return nil, domain.ErrSafeRequired
	}
	if _, err := s.safes.GetSafe(ctx, safeID); err != nil {
		return nil, err
	}
	return s.safes.Movements(ctx, safeID)
}
