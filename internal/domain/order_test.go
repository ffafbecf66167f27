package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// helper для создания базового заказа с двумя цветами одной модели.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          "order-1",
		Number:      1,
		CustomerID:  "customer-1",
		UserID:      "user-1",
		TotalAmount: decimal.RequireFromString("2220"),
		Deposit:     decimal.RequireFromString("100"),
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "p-black", Quantity: 2, Price: decimal.RequireFromString("185")},
			{ID: "item-2", ProductID: "p-red", Quantity: 1, Price: decimal.RequireFromString("185")},
		},
		CreatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{name: "no customer", mut: func(o *domain.Order) { o.CustomerID = "" }},
		{name: "no user", mut: func(o *domain.Order) { o.UserID = "" }},
		{name: "no items", mut: func(o *domain.Order) { o.Items = nil }},
		{name: "negative deposit", mut: func(o *domain.Order) { o.Deposit = decimal.NewFromInt(-1) }},
		{name: "qty invalid", mut: func(o *domain.Order) { o.Items[0].Quantity = 0 }},
		{name: "price invalid", mut: func(o *domain.Order) { o.Items[0].Price = decimal.NewFromInt(-5) }},
		{name: "discount above 100", mut: func(o *domain.Order) { o.Items[0].DiscountPercent = decimal.NewFromInt(101) }},
		{name: "discount negative", mut: func(o *domain.Order) { o.Items[1].DiscountPercent = decimal.NewFromInt(-1) }},
		{name: "amount mismatch", mut: func(o *domain.Order) { o.TotalAmount = decimal.NewFromInt(999) }},
		{name: "sub-cent deposit", mut: func(o *domain.Order) { o.Deposit = decimal.RequireFromString("0.004") }},
		{name: "sub-cent discount", mut: func(o *domain.Order) { o.Items[0].DiscountPercent = decimal.RequireFromString("12.345") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			order.Items = append([]domain.OrderItem(nil), order.Items...)
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestComputeTotal_UsesPiecesPerUnit(t *testing.T) {
	items := []domain.OrderItem{
		{Quantity: 2, Price: decimal.RequireFromString("185")},
		{Quantity: 3, Price: decimal.RequireFromString("12.25")},
	}

	// 2*4*185 + 3*4*12.25 = 1480 + 147
	want := decimal.RequireFromString("1627")
	if got := domain.ComputeTotal(items); !got.Equal(want) {
		t.Fatalf("ComputeTotal() = %s, want %s", got, want)
	}
}

func TestOrderRemainingDue(t *testing.T) {
	order := makeOrder()
	if got := order.RemainingDue(); !got.Equal(decimal.RequireFromString("2120")) {
		t.Fatalf("RemainingDue() = %s, want 2120", got)
	}

	order.Deposit = decimal.RequireFromString("3000")
	if got := order.RemainingDue(); !got.IsNegative() {
		t.Fatalf("overpayment must give negative remaining due, got %s", got)
	}
}

func TestStockDemands_AggregatesAndSorts(t *testing.T) {
	items := []domain.OrderItem{
		{ProductID: "p-b", Quantity: 2},
		{ProductID: "p-a", Quantity: 1},
		{ProductID: "p-b", Quantity: 3},
	}

	got := domain.StockDemands(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 demands, got %d", len(got))
	}
	if got[0].ProductID != "p-a" || got[0].Quantity != 1 {
		t.Fatalf("unexpected first demand: %+v", got[0])
	}
	if got[1].ProductID != "p-b" || got[1].Quantity != 5 {
		t.Fatalf("unexpected second demand: %+v", got[1])
	}
}
