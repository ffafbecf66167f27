// Package reporting строит сводки по продажам, остаткам и кассам. Только чтение.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const day = 24 * time.Hour

// MaxHistoryDays ограничивает период посуточной истории кассы.
const MaxHistoryDays = 366

// EmployeeSales: продажи одного сотрудника за период.
type EmployeeSales struct {
	UserID   string
	UserName string
	Orders   int
	Units    int64
	Pieces   int64
	Amount   decimal.Decimal
	Deposits decimal.Decimal
}

// ProductMovement: продажи варианта за период и его текущий остаток.
type ProductMovement struct {
	ProductID  string
	ModelNo    string
	Color      string
	UnitsSold  int64
	PiecesSold int64
	Revenue    decimal.Decimal
	StockQty   int64
}

// DailyBalance: баланс кассы за один день (UTC).
type DailyBalance struct {
	Day     time.Time
	Opening decimal.Decimal
	Inflow  decimal.Decimal
	Closing decimal.Decimal
}

// Service собирает отчёты из репозиториев.
type Service struct {
	orders  domain.OrderRepository
	catalog domain.CatalogRepository
	users   domain.UserRepository
	safes   domain.SafeRepository
}

// NewService создаёт сервис отчётов.
func NewService(orders domain.OrderRepository, catalog domain.CatalogRepository, users domain.UserRepository, safes domain.SafeRepository) *Service {
	return &Service{orders: orders, catalog: catalog, users: users, safes: safes}
}

func validPeriod(from, to time.Time) error {
	if !from.Before(to) {
		return fmt.Errorf("period start %s must be before end %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), domain.ErrValidation)
	}
	return nil
}

// EmployeeSales группирует заказы периода [from, to) по сотруднику; больше продавшие идут первыми.
func (s *Service) EmployeeSales(ctx context.Context, from, to time.Time) ([]EmployeeSales, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*EmployeeSales)
	for _, order := range orders {
		row, ok := byUser[order.UserID]
		if !ok {
			row = &EmployeeSales{UserID: order.UserID, UserName: order.UserID, Amount: decimal.Zero, Deposits: decimal.Zero}
			byUser[order.UserID] = row
		}
		row.Orders++
		row.Units += order.Units()
		row.Amount = row.Amount.Add(order.TotalAmount)
		row.Deposits = row.Deposits.Add(order.Deposit)
	}

	result := make([]EmployeeSales, 0, len(byUser))
	for _, row := range byUser {
		row.Pieces = domain.Pieces(row.Units)
		// Сотрудник может отсутствовать в справочнике: показываем его ID.
		if user, err := s.users.GetUser(ctx, row.UserID); err == nil {
			row.UserName = user.Name
		} else if !domain.IsNotFound(err) {
			return nil, err
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Amount.Cmp(result[j].Amount); c != 0 {
			return c > 0
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

// InventoryMovement суммирует продажи по вариантам за период и добавляет текущий остаток.
func (s *Service) InventoryMovement(ctx context.Context, from, to time.Time) ([]ProductMovement, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*ProductMovement)
	var ids []string
	for _, order := range orders {
		for _, item := range order.Items {
			row, ok := byProduct[item.ProductID]
			if !ok {
				row = &ProductMovement{ProductID: item.ProductID, ModelNo: item.ModelNo, Color: item.Color, Revenue: decimal.Zero}
				byProduct[item.ProductID] = row
				ids = append(ids, item.ProductID)
			}
			row.UnitsSold += item.Quantity
			row.Revenue = row.Revenue.Add(item.Total())
		}
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ProductMovement, 0, len(byProduct))
	for _, row := range byProduct {
		row.PiecesSold = domain.Pieces(row.UnitsSold)
		if product, ok := products[row.ProductID]; ok {
			row.ModelNo = product.ModelNo
			row.Color = product.Color
			row.StockQty = product.StockQty
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ModelNo != result[j].ModelNo {
			return result[i].ModelNo < result[j].ModelNo
		}
		return result[i].Color < result[j].Color
	})
	return result, nil
}

// SafeBalanceHistory возвращает по дню на каждые сутки (UTC), пересекающие [from, to).
func (s *Service) SafeBalanceHistory(ctx context.Context, safeID string, from, to time.Time) ([]DailyBalance, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}
	first := from.UTC().Truncate(day)
	if to.Sub(first) > MaxHistoryDays*day {
		return nil, fmt.Errorf("%w: %s .. %s", domain.ErrPeriodTooLong, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	if _, err := s.safes.GetSafe(ctx, safeID); err != nil {
		return nil, err
	}
	movements, err := s.safes.Movements(ctx, safeID)
	if err != nil {
		return nil, err
	}

	var result []DailyBalance
	before := first.Add(-time.Nanosecond)
	opening := domain.FoldBalance(movements, &before)
	for start := first; start.Before(to); start = start.Add(day) {
		end := start.Add(day)
		inflow := decimal.Zero
		for _, m := range movements {
			if !m.CreatedAt.Before(start) && m.CreatedAt.Before(end) {
				inflow = inflow.Add(m.Amount)
			}
		}
		result = append(result, DailyBalance{
			Day:     start,
			Opening: opening,
			Inflow:  inflow,
			Closing: opening.Add(inflow),
		})
		opening = opening.Add(inflow)
	}
	return result, nil
}
