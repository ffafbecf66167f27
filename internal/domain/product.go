package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus определяет, можно ли продавать модель без остатка.
type ProductStatus string

const (
	// ProductStatusOpen: модель продаётся всегда, остаток может уйти в минус.
	ProductStatusOpen ProductStatus = "open"
	// ProductStatusClosed: продажа только из наличия.
	ProductStatusClosed ProductStatus = "closed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusOpen, ProductStatusClosed:
		return true
	default:
		return false
	}
}

// Product описывает вариант модели, то есть пару (ModelNo, Color) со своей ценой и остатком.
type Product struct {
	ID          string
	ModelNo     string
	Color       string
	Description string
	Material    string
	// Price: цена за штуку.
	Price decimal.Decimal
	// StockQty: остаток в единицах продажи.
	StockQty  int64
	Status    ProductStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля товара.
func (p *Product) Validate() []error {
	var errs []error

	if strings.TrimSpace(p.ModelNo) == "" {
		errs = append(errs, ErrModelNoRequired)
	}
	if strings.TrimSpace(p.Color) == "" {
		errs = append(errs, ErrColorRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if !ValidScale(p.Price) {
		errs = append(errs, ErrAmountScale)
	}
	if !p.Status.Valid() {
		errs = append(errs, ErrProductStatusInvalid)
	}

	return errs
}

// CanSell сообщает, допустима ли продажа qty единиц с учётом статуса.
// Открытая модель продаётся при любом остатке.
func (p *Product) CanSell(qty int64) bool {
	if p.Status == ProductStatusOpen {
		return true
	}
	return p.StockQty-qty >= 0
}
