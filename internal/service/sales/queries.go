package sales

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/invoice"
)

// Statement показывает расчёты с клиентом: сколько заказано и сколько внесено.
type Statement struct {
	CustomerID   string
	Orders       int
	TotalOrdered decimal.Decimal
	Deposits     decimal.Decimal
	Payments     decimal.Decimal
	// Outstanding = TotalOrdered - Deposits - Payments; отрицателен при переплате.
	Outstanding decimal.Decimal
}

// GetOrder возвращает заказ с позициями.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repos.Orders.Get(ctx, id)
}

// ListOrders возвращает заказы клиента, новые первыми.
func (s *Service) ListOrders(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	if customerID == "" {
		return nil, domain.ErrCustomerRequired
	}
	return s.repos.Orders.ListByCustomer(ctx, customerID, limit)
}

// GetPayment возвращает платёж по ID.
func (s *Service) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	return s.repos.Payments.Get(ctx, id)
}

// Invoice собирает накладную по сохранённому заказу.
func (s *Service) Invoice(ctx context.Context, orderID string) (invoice.Invoice, error) {
	order, err := s.repos.Orders.Get(ctx, orderID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	customer, err := s.repos.Customers.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return invoice.Invoice{}, err
	}

	// userId приходит снаружи и может отсутствовать в справочнике.
	user, err := s.repos.Users.GetUser(ctx, order.UserID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return invoice.Invoice{}, err
		}
		user = domain.User{ID: order.UserID, Name: order.UserID}
	}

	return invoice.Build(order, customer, user), nil
}

// CustomerBalance сводит заказы, задатки и отдельные оплаты клиента.
func (s *Service) CustomerBalance(ctx context.Context, customerID string) (Statement, error) {
	if _, err := s.repos.Customers.GetCustomer(ctx, customerID); err != nil {
		return Statement{}, err
	}
	orders, err := s.repos.Orders.ListByCustomer(ctx, customerID, 0)
	if err != nil {
		return Statement{}, err
	}
	payments, err := s.repos.Payments.ListByCustomer(ctx, customerID)
	if err != nil {
		return Statement{}, err
	}

	st := Statement{
		CustomerID:   customerID,
		Orders:       len(orders),
		TotalOrdered: decimal.Zero,
		Deposits:     decimal.Zero,
		Payments:     decimal.Zero,
	}
	for _, order := range orders {
		st.TotalOrdered = st.TotalOrdered.Add(order.TotalAmount)
		st.Deposits = st.Deposits.Add(order.Deposit)
	}
	for _, payment := range payments {
		st.Payments = st.Payments.Add(payment.Amount)
	}
	st.Outstanding = st.TotalOrdered.Sub(st.Deposits).Sub(st.Payments)
	return st, nil
}

// SearchProducts ищет варианты по подстроке номера модели. Для терма короче двух символов результат пуст.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < minSearchTermLen {
		return []domain.Product{}, nil
	}
	return s.repos.Catalog.SearchByModel(ctx, term, s.searchLimit)
}

// ListCustomers возвращает клиентов по имени; при limit<=0 берётся лимит поиска по умолчанию.
func (s *Service) ListCustomers(ctx context.Context, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = s.searchLimit
	}
	return s.repos.Customers.ListCustomers(ctx, limit)
}

// SearchCustomers ищет клиента по имени, телефону или коду без учёта диакритики.
func (s *Service) SearchCustomers(ctx context.Context, term string) ([]domain.Customer, error) {
	if strings.TrimSpace(term) == "" {
		return []domain.Customer{}, nil
	}
	return s.repos.Customers.SearchCustomers(ctx, term, s.searchLimit)
}
