// Package seed заполняет справочники демонстрационными данными.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// Repositories: справочники, которые заполняет seed.
type Repositories struct {
	Catalog   domain.CatalogRepository
	Customers domain.CustomerRepository
	Users     domain.UserRepository
	Safes     domain.SafeRepository
}

// Summary: сколько записей создано и сколько уже существовало.
type Summary struct {
	Created  int
	Existing int
}

var demoUsers = []domain.User{
	{ID: "user-admin", Name: "Administrator"},
	{ID: "user-samir", Name: "Samir"},
}

var demoSafes = []domain.Safe{
	{Name: "الخزنة الرئيسية"},
	{Name: "Shop counter"},
}

var demoCustomers = []domain.Customer{
	{Code: "C-001", Name: "محلات الأمل", Phone: "01001234567", Address: "Cairo, El Mosky"},
	{Code: "C-002", Name: "Boutique Élégance", Phone: "01119876543", Phone2: "0225551234", Address: "Alexandria"},
	{Code: "C-003", Name: "معرض النور", Phone: "01234567890"},
}

func demoProducts() []domain.Product {
	price := decimal.RequireFromString
	return []domain.Product{
		{ModelNo: "3700", Color: "أسود", Description: "Women blouse", Material: "cotton", Price: price("185"), StockQty: 40, Status: domain.ProductStatusOpen},
		{ModelNo: "3700", Color: "أحمر", Description: "Women blouse", Material: "cotton", Price: price("185"), StockQty: 25, Status: domain.ProductStatusOpen},
		{ModelNo: "3700", Color: "كحلي", Description: "Women blouse", Material: "cotton", Price: price("185"), StockQty: 10, Status: domain.ProductStatusOpen},
		{ModelNo: "4100", Color: "blue", Description: "Denim jacket", Material: "denim", Price: price("320.50"), StockQty: 12, Status: domain.ProductStatusClosed},
		{ModelNo: "4100", Color: "black", Description: "Denim jacket", Material: "denim", Price: price("320.50"), StockQty: 6, Status: domain.ProductStatusClosed},
		{ModelNo: "5205", Color: "beige", Description: "Linen trousers", Material: "linen", Price: price("99.90"), StockQty: 0, Status: domain.ProductStatusOpen},
	}
}

// Run создаёт демонстрационные справочники. Повторный запуск ничего не дублирует:
// ErrDuplicate считается признаком уже существующей записи.
func Run(ctx context.Context, repos Repositories, logger *log.Entry) (Summary, error) {
	if logger == nil {
		logger = log.WithField("component", "seed")
	}

	var summary Summary
	count := func(kind string, err error) error {
		switch {
		case err == nil:
			summary.Created++
			return nil
		case errors.Is(err, domain.ErrDuplicate):
			summary.Existing++
			return nil
		default:
			return fmt.Errorf("seed %s: %w", kind, err)
		}
	}

	for _, user := range demoUsers {
		_, err := repos.Users.CreateUser(ctx, user)
		if err := count("user", err); err != nil {
			return summary, err
		}
	}
	for _, safe := range demoSafes {
		_, err := repos.Safes.CreateSafe(ctx, safe)
		if err := count("safe", err); err != nil {
			return summary, err
		}
	}
	for _, customer := range demoCustomers {
		_, err := repos.Customers.CreateCustomer(ctx, customer)
		if err := count("customer", err); err != nil {
			return summary, err
		}
	}
	for _, product := range demoProducts() {
		_, err := repos.Catalog.CreateProduct(ctx, product)
		if err := count("product", err); err != nil {
			return summary, err
		}
	}

	logger.WithFields(log.Fields{
		"created":  summary.Created,
		"existing": summary.Existing,
	}).Info("Demo data seeded")
	return summary, nil
}
