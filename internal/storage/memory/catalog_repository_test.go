package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/storage/memory"
)

func TestCatalogRepository_UniqueModelColor(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Catalog()

	p := domain.Product{ModelNo: "3700", Color: "black", Price: decimal.NewFromInt(185), Status: domain.ProductStatusOpen}
	if _, err := repo.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if _, err := repo.CreateProduct(ctx, p); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	p.Color = "red"
	if _, err := repo.CreateProduct(ctx, p); err != nil {
		t.Fatalf("other color must be accepted: %v", err)
	}
}

func TestCatalogRepository_SearchByModel(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Catalog()

	for _, model := range []string{"AB-100", "ab-200", "CD-100"} {
		if _, err := repo.CreateProduct(ctx, domain.Product{ModelNo: model, Color: "black", Status: domain.ProductStatusOpen}); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}

	found, err := repo.SearchByModel(ctx, "Ab", 10)
	if err != nil {
		t.Fatalf("SearchByModel failed: %v", err)
	}
	if len(found) != 2 || found[0].ModelNo != "AB-100" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	limited, _ := repo.SearchByModel(ctx, "100", 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	byID, _ := repo.GetProducts(ctx, []string{found[0].ID, "missing"})
	if len(byID) != 1 {
		t.Fatalf("expected one product, got %d", len(byID))
	}
}

func TestCustomerRepository_SearchIsDiacriticInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Customers()

	for _, c := range []domain.Customer{
		{Name: "محلات الأمل", Phone: "01001234567", Code: "C-1"},
		{Name: "Boutique Hélène", Phone: "0200", Code: "C-2"},
	} {
		if _, err := repo.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer failed: %v", err)
		}
	}
	if _, err := repo.CreateCustomer(ctx, domain.Customer{Name: "dup", Code: "C-1"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}

	cases := map[string]int{"الامل": 1, "helene": 1, "0100123": 1, "c-2": 1, "xyz": 0}
	for term, want := range cases {
		got, err := repo.SearchCustomers(ctx, term, 20)
		if err != nil {
			t.Fatalf("SearchCustomers(%q) failed: %v", term, err)
		}
		if len(got) != want {
			t.Fatalf("SearchCustomers(%q) = %d results, want %d", term, len(got), want)
		}
	}

	all, _ := repo.ListCustomers(ctx, 1)
	if len(all) != 1 {
		t.Fatalf("expected limit 1, got %d", len(all))
	}
}

func TestSafeRepository_MovementsChronological(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	customer, _ := store.Customers().CreateCustomer(ctx, domain.Customer{Name: "c"})
	safe, err := store.Safes().CreateSafe(ctx, domain.Safe{Name: "main"})
	if err != nil {
		t.Fatalf("CreateSafe failed: %v", err)
	}
	if _, err := store.Safes().CreateSafe(ctx, domain.Safe{Name: "main"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate safe name, got %v", err)
	}

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base.Add(time.Hour), base} {
		payment := domain.Payment{
			ID: "pay-" + string(rune('a'+i)), CustomerID: customer.ID, SafeID: safe.ID,
			UserID: "u", Amount: decimal.NewFromInt(int64(10 * (i + 1))), CreatedAt: at,
		}
		err := store.Payments().Create(ctx, domain.PaymentWrite{Payment: payment, Movement: payment.Movement("mv-" + payment.ID)})
		if err != nil {
			t.Fatalf("payment create failed: %v", err)
		}
	}

	movements, _ := store.Safes().Movements(ctx, safe.ID)
	if len(movements) != 2 || movements[0].ReferenceID != "pay-b" {
		t.Fatalf("expected chronological order, got %+v", movements)
	}
	if _, err := store.Safes().GetMovement(ctx, "mv-pay-a"); err != nil {
		t.Fatalf("GetMovement failed: %v", err)
	}
	if _, err := store.Safes().GetMovement(ctx, "missing"); !errors.Is(err, domain.ErrMovementNotFound) {
		t.Fatalf("expected ErrMovementNotFound, got %v", err)
	}

	payments, _ := store.Payments().ListByCustomer(ctx, customer.ID)
	if len(payments) != 2 || payments[0].ID != "pay-b" {
		t.Fatalf("unexpected payments: %+v", payments)
	}
}
