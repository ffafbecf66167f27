package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem представляет одну позицию заказа: один цветовой вариант модели.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID        string
	ProductID string
	// Quantity: количество единиц продажи (1 единица = PiecesPerUnit штук).
	Quantity int64
	// Price: цена за штуку после скидки, зафиксированная в момент продажи.
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal

	// Снимок товара, заполняется при чтении для печати накладной.
	ModelNo     string
	Color       string
	Description string
}

// Total возвращает сумму позиции.
func (i OrderItem) Total() decimal.Decimal {
	return LineTotal(i.Quantity, i.Price)
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	ID          string
	Number      int64
	CustomerID  string
	UserID      string
	TotalAmount decimal.Decimal
	Deposit     decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
}

// ComputeTotal пересчитывает итог заказа по позициям.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// RemainingDue: остаток к оплате по накладной. При переплате отрицателен.
func (o *Order) RemainingDue() decimal.Decimal {
	return o.TotalAmount.Sub(o.Deposit)
}

// Units возвращает суммарное количество единиц в заказе.
func (o *Order) Units() int64 {
	var units int64
	for _, item := range o.Items {
		units += item.Quantity
	}
	return units
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Deposit.IsNegative() {
		errs = append(errs, ErrDepositNegative)
	}
	if !ValidScale(o.Deposit) {
		errs = append(errs, ErrAmountScale)
	}

	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !ValidDiscount(item.DiscountPercent) {
			errs = append(errs, ErrDiscountOutOfRange)
		}
		if !ValidScale(item.Price) || !ValidScale(item.DiscountPercent) {
			errs = append(errs, ErrAmountScale)
		}
	}

	// Сверяем итог с суммой позиций: qty * 4 * price.
	if !ComputeTotal(o.Items).Equal(o.TotalAmount) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// StockDemand: суммарное списание по одному товару.
type StockDemand struct {
	ProductID string
	Quantity  int64
}

// StockDemands суммирует количества по товарам и сортирует по ID,
// чтобы строки товаров блокировались в одном порядке.
func StockDemands(items []OrderItem) []StockDemand {
	byProduct := make(map[string]int64, len(items))
	for _, item := range items {
		byProduct[item.ProductID] += item.Quantity
	}

	result := make([]StockDemand, 0, len(byProduct))
	for id, qty := range byProduct {
		result = append(result, StockDemand{ProductID: id, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result
}
