package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment: оплата клиента в кассу, не привязанная к заказу.
type Payment struct {
	ID         string
	CustomerID string
	SafeID     string
	UserID     string
	Amount     decimal.Decimal
	Note       string
	CreatedAt  time.Time
}

// Validate проверяет корректность полей платежа и возвращает ошибки, если они есть.
func (p *Payment) Validate() []error {
	var errs []error

	if p.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if p.SafeID == "" {
		errs = append(errs, ErrSafeRequired)
	}
	if p.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if !p.Amount.IsPositive() {
		errs = append(errs, ErrPaymentAmountInvalid)
	}
	if !ValidScale(p.Amount) {
		errs = append(errs, ErrAmountScale)
	}

	return errs
}

// Movement строит единственное движение по кассе для платежа.
func (p *Payment) Movement(id string) SafeMovement {
	return SafeMovement{
		ID:          id,
		SafeID:      p.SafeID,
		Amount:      p.Amount,
		Source:      MovementSourcePayment,
		ReferenceID: p.ID,
		CreatedAt:   p.CreatedAt,
	}
}
