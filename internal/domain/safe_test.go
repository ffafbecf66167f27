package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFoldBalance(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	movements := []SafeMovement{
		{ID: "m1", Amount: decimal.RequireFromString("100"), Source: MovementSourceOrderDeposit, CreatedAt: base},
		{ID: "m2", Amount: decimal.RequireFromString("50.5"), Source: MovementSourcePayment, CreatedAt: base.Add(time.Hour)},
		{ID: "m3", Amount: decimal.RequireFromString("20"), Source: MovementSourcePayment, CreatedAt: base.Add(2 * time.Hour)},
	}

	at := func(ts time.Time) *time.Time { return &ts }

	if got := FoldBalance(movements, nil); !got.Equal(decimal.RequireFromString("170.5")) {
		t.Fatalf("all-time balance = %s, want 170.5", got)
	}
	if got := FoldBalance(movements, at(base.Add(time.Hour))); !got.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("balance as of m2 = %s, want 150.5", got)
	}
	if got := FoldBalance(movements, at(base.Add(-time.Minute))); !got.IsZero() {
		t.Fatalf("balance before first movement = %s, want 0", got)
	}
	if got := FoldBalance(movements, at(time.Time{})); !got.IsZero() {
		t.Fatalf("balance as of the zero time = %s, want 0", got)
	}
	if got := FoldBalance(nil, nil); !got.IsZero() {
		t.Fatalf("empty safe must have zero balance, got %s", got)
	}
}

func TestMovementSourceValid(t *testing.T) {
	if !MovementSourceOrderDeposit.Valid() || !MovementSourcePayment.Valid() {
		t.Fatal("known sources must be valid")
	}
	if MovementSource("REFUND").Valid() {
		t.Fatal("unknown source must be invalid")
	}
}

func TestPaymentMovement(t *testing.T) {
	p := Payment{
		ID:         "pay-1",
		CustomerID: "c-1",
		SafeID:     "s-1",
		UserID:     "u-1",
		Amount:     decimal.RequireFromString("75"),
		CreatedAt:  time.Now().UTC(),
	}
	if errs := p.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	m := p.Movement("mv-1")
	if m.Source != MovementSourcePayment || m.ReferenceID != "pay-1" || m.SafeID != "s-1" {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if !m.Amount.Equal(p.Amount) || !m.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("movement must mirror payment amount and time: %+v", m)
	}
}

func TestPaymentValidate(t *testing.T) {
	p := Payment{Amount: decimal.Zero}
	errs := p.Validate()
	if len(errs) != 4 {
		t.Fatalf("expected 4 validation errors, got %v", errs)
	}
	for _, err := range errs {
		if !IsValidation(err) {
			t.Fatalf("error %v must be a validation error", err)
		}
	}
}
