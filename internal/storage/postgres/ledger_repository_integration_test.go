package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

func TestPaymentRepository_PostgresCreateAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	fx := seedFixtureForIntegrationTest(t, store)
	ctx := context.Background()

	payment := domain.Payment{
		ID:         uuid.NewString(),
		CustomerID: fx.customer.ID,
		SafeID:     fx.safe.ID,
		UserID:     "user-1",
		Amount:     decimal.RequireFromString("250.50"),
		Note:       "cash",
		CreatedAt:  time.Now().UTC().Round(time.Microsecond),
	}
	movement := payment.Movement(uuid.NewString())

	if err := store.Payments().Create(ctx, domain.PaymentWrite{Payment: payment, Movement: movement}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	got, err := store.Payments().Get(ctx, payment.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if !got.Amount.Equal(payment.Amount) || got.Note != "cash" {
		t.Fatalf("unexpected payment: %+v", got)
	}

	listed, err := store.Payments().ListByCustomer(ctx, fx.customer.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one payment, got %d", len(listed))
	}

	stored, err := store.Safes().GetMovement(ctx, movement.ID)
	if err != nil {
		t.Fatalf("get movement: %v", err)
	}
	if stored.Source != domain.MovementSourcePayment || stored.ReferenceID != payment.ID {
		t.Fatalf("unexpected movement: %+v", stored)
	}
}

func TestPaymentRepository_PostgresErrors(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	fx := seedFixtureForIntegrationTest(t, store)
	ctx := context.Background()

	payment := domain.Payment{
		ID:         uuid.NewString(),
		CustomerID: fx.customer.ID,
		SafeID:     "missing",
		UserID:     "user-1",
		Amount:     decimal.NewFromInt(10),
		CreatedAt:  time.Now().UTC(),
	}
	err := store.Payments().Create(ctx, domain.PaymentWrite{Payment: payment, Movement: payment.Movement(uuid.NewString())})
	if !errors.Is(err, domain.ErrSafeNotFound) {
		t.Fatalf("expected ErrSafeNotFound, got %v", err)
	}

	subCent := payment
	subCent.ID = uuid.NewString()
	subCent.SafeID = fx.safe.ID
	subCent.Amount = decimal.RequireFromString("0.001")
	err = store.Payments().Create(ctx, domain.PaymentWrite{Payment: subCent, Movement: subCent.Movement(uuid.NewString())})
	if !errors.Is(err, domain.ErrAmountScale) || domain.IsStorage(err) {
		t.Fatalf("expected ErrAmountScale, got %v", err)
	}

	if _, err := store.Payments().Get(ctx, payment.ID); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if _, err := store.Safes().GetMovement(ctx, "missing"); !errors.Is(err, domain.ErrMovementNotFound) {
		t.Fatalf("expected ErrMovementNotFound, got %v", err)
	}
}

func TestReferenceRepositories_PostgresSearchAndDuplicates(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	fx := seedFixtureForIntegrationTest(t, store)
	ctx := context.Background()

	found, err := store.Customers().SearchCustomers(ctx, "الامل", 10)
	if err != nil {
		t.Fatalf("search customers: %v", err)
	}
	if len(found) != 1 || found[0].ID != fx.customer.ID {
		t.Fatalf("expected folded search to find customer: %+v", found)
	}

	products, err := store.Catalog().SearchByModel(ctx, "37", 0)
	if err != nil {
		t.Fatalf("search products: %v", err)
	}
	if len(products) != 1 || products[0].ID != fx.open.ID {
		t.Fatalf("unexpected products: %+v", products)
	}

	byID, err := store.Catalog().GetProducts(ctx, []string{fx.open.ID, "missing"})
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	if len(byID) != 1 {
		t.Fatalf("expected only existing product in map, got %d", len(byID))
	}

	if _, err := store.Catalog().CreateProduct(ctx, domain.Product{ModelNo: "3700", Color: "BLACK", Price: decimal.NewFromInt(1), Status: domain.ProductStatusOpen}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for model/color pair, got %v", err)
	}
	if _, err := store.Customers().CreateCustomer(ctx, domain.Customer{Code: "C-1", Name: "Other"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for customer code, got %v", err)
	}
	if _, err := store.Safes().CreateSafe(ctx, domain.Safe{Name: "Main"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for safe name, got %v", err)
	}
	if _, err := store.Users().GetUser(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
