package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Safe: именованная касса. Баланс не хранится, а выводится из движений.
type Safe struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// MovementSource: происхождение движения денег по кассе.
type MovementSource string

const (
	// MovementSourceOrderDeposit: задаток, принятый при оформлении заказа.
	MovementSourceOrderDeposit MovementSource = "ORDER_DEPOSIT"
	// MovementSourcePayment: отдельная оплата клиента.
	MovementSourcePayment MovementSource = "PAYMENT"
)

// Valid проверяет, что источник относится к поддерживаемым значениям.
func (s MovementSource) Valid() bool {
	switch s {
	case MovementSourceOrderDeposit, MovementSourcePayment:
		return true
	default:
		return false
	}
}

// SafeMovement: запись журнала кассы. Только добавляется, никогда не меняется.
type SafeMovement struct {
	ID     string
	SafeID string
	// Amount со знаком: положительное значение означает приход.
	Amount      decimal.Decimal
	Source      MovementSource
	ReferenceID string
	CreatedAt   time.Time
}

// FoldBalance суммирует движения с CreatedAt <= *asOf; nil asOf означает «за всё время».
func FoldBalance(movements []SafeMovement, asOf *time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range movements {
		if asOf != nil && m.CreatedAt.After(*asOf) {
			continue
		}
		balance = balance.Add(m.Amount)
	}
	return balance
}
