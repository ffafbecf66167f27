package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/wholesale/internal/cart"
	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/ledger"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
	"github.com/vladislavdragonenkov/wholesale/internal/service/sales"
	"github.com/vladislavdragonenkov/wholesale/internal/storage/memory"
)

type env struct {
	store    *memory.Store
	svc      *sales.Service
	ledger   *ledger.Service
	customer domain.Customer
	safe     domain.Safe
	black    domain.Product
	red      domain.Product
	closed   domain.Product
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	customer, err := store.Customers().CreateCustomer(ctx, domain.Customer{Code: "C-1", Name: "محلات الأمل", Phone: "0100"})
	require.NoError(t, err)
	safe, err := store.Safes().CreateSafe(ctx, domain.Safe{Name: "الخزنة الرئيسية"})
	require.NoError(t, err)
	_, err = store.Users().CreateUser(ctx, domain.User{ID: "user-1", Name: "Samir"})
	require.NoError(t, err)
	black, err := store.Catalog().CreateProduct(ctx, domain.Product{
		ModelNo: "3700", Color: "أسود", Description: "قميص", Price: decimal.NewFromInt(185), StockQty: 10, Status: domain.ProductStatusOpen,
	})
	require.NoError(t, err)
	red, err := store.Catalog().CreateProduct(ctx, domain.Product{
		ModelNo: "3700", Color: "أحمر", Description: "قميص", Price: decimal.NewFromInt(185), StockQty: 10, Status: domain.ProductStatusOpen,
	})
	require.NoError(t, err)
	closed, err := store.Catalog().CreateProduct(ctx, domain.Product{
		ModelNo: "4100", Color: "blue", Price: decimal.NewFromInt(90), StockQty: 1, Status: domain.ProductStatusClosed,
	})
	require.NoError(t, err)

	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	svc := sales.NewService(sales.Repositories{
		Catalog:   store.Catalog(),
		Customers: store.Customers(),
		Users:     store.Users(),
		Safes:     store.Safes(),
		Orders:    store.Orders(),
		Payments:  store.Payments(),
	},
		sales.WithLogger(logger.WithField("component", "sales-test")),
		sales.WithMetrics(metrics.NewSalesMetricsWithRegisterer(prometheus.NewRegistry())),
	)

	return env{
		store:    store,
		svc:      svc,
		ledger:   ledger.NewService(store.Safes(), store.Orders(), store.Payments()),
		customer: customer,
		safe:     safe,
		black:    black,
		red:      red,
		closed:   closed,
	}
}

func pickOf(p domain.Product, qty int64) cart.Pick {
	return cart.Pick{
		ProductID:   p.ID,
		ModelNo:     p.ModelNo,
		Color:       p.Color,
		Description: p.Description,
		Quantity:    qty,
		Price:       p.Price,
	}
}

func (e env) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := e.store.Catalog().GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQty
}

func (e env) depositMovements(t *testing.T, orderID string) []domain.SafeMovement {
	t.Helper()
	all, err := e.store.Safes().Movements(context.Background(), e.safe.ID)
	require.NoError(t, err)
	var result []domain.SafeMovement
	for _, m := range all {
		if m.Source == domain.MovementSourceOrderDeposit && m.ReferenceID == orderID {
			result = append(result, m)
		}
	}
	return result
}

func TestCreateOrder_EndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	lines := cart.Add(nil, []cart.Pick{pickOf(e.black, 2)})
	total := cart.Totals(lines).Amount

	order, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID:  e.customer.ID,
		UserID:      "user-1",
		Lines:       lines,
		ClientTotal: &total,
		Deposit:     decimal.NewFromInt(100),
		SafeID:      e.safe.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), order.Number)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(1480)))
	require.Equal(t, "3700", order.Items[0].ModelNo)

	movements := e.depositMovements(t, order.ID)
	require.Len(t, movements, 1)
	require.True(t, movements[0].Amount.Equal(decimal.NewFromInt(100)))
	require.Equal(t, int64(8), e.stock(t, e.black.ID))

	balance, err := e.ledger.Balance(ctx, e.safe.ID, nil)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(100)))

	inv, err := e.svc.Invoice(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, inv.RemainingDue.Equal(decimal.NewFromInt(1380)))
	require.Equal(t, "Samir", inv.UserName)
	require.Equal(t, "8 (أسود)", inv.Groups[0].Composition)

	events := e.store.Outbox().AllPending()
	require.Len(t, events, 2)
}

func TestCreateOrder_DepositLedgerLink(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	noDeposit, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID,
		UserID:     "user-1",
		Lines:      cart.Add(nil, []cart.Pick{pickOf(e.red, 1)}),
	})
	require.NoError(t, err)
	require.Empty(t, e.depositMovements(t, noDeposit.ID))

	withDeposit, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID,
		UserID:     "user-1",
		Lines:      cart.Add(nil, []cart.Pick{pickOf(e.red, 1)}),
		Deposit:    decimal.RequireFromString("20.50"),
		SafeID:     e.safe.ID,
	})
	require.NoError(t, err)
	movements := e.depositMovements(t, withDeposit.ID)
	require.Len(t, movements, 1)
	require.True(t, movements[0].Amount.Equal(decimal.RequireFromString("20.5")))
}

func TestCreateOrder_StockDecrementAndRollback(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	lines := cart.Add(nil, []cart.Pick{pickOf(e.black, 2), pickOf(e.red, 3)})
	_, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: lines})
	require.NoError(t, err)
	require.Equal(t, int64(8), e.stock(t, e.black.ID))
	require.Equal(t, int64(7), e.stock(t, e.red.ID))

	e.store.SetCommitHook(func(string) error { return errors.New("simulated crash") })
	_, err = e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "user-1", Lines: lines, Deposit: decimal.NewFromInt(50), SafeID: e.safe.ID,
	})
	require.True(t, domain.IsStorage(err), "got %v", err)
	require.Equal(t, int64(8), e.stock(t, e.black.ID))
	require.Equal(t, int64(7), e.stock(t, e.red.ID))

	orders, err := e.svc.ListOrders(ctx, e.customer.ID, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	balance, err := e.ledger.Balance(ctx, e.safe.ID, nil)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestCreateOrder_ClosedProductGuard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	lines := cart.Add(nil, []cart.Pick{pickOf(e.black, 2), pickOf(e.closed, 2)})
	_, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: lines})
	require.True(t, domain.IsConflict(err), "got %v", err)
	require.True(t, errors.Is(err, domain.ErrInsufficientStock))
	require.Equal(t, int64(10), e.stock(t, e.black.ID))
	require.Equal(t, int64(1), e.stock(t, e.closed.ID))

	// Последняя единица закрытой модели продаётся.
	_, err = e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{pickOf(e.closed, 1)}),
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), e.stock(t, e.closed.ID))
}

func TestCreateOrder_OpenProductGoesNegative(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateOrder(context.Background(), sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{pickOf(e.black, 12)}),
	})
	require.NoError(t, err)
	require.Equal(t, int64(-2), e.stock(t, e.black.ID))
}

func TestCreateOrder_Validation(t *testing.T) {
	e := newEnv(t)
	good := cart.Add(nil, []cart.Pick{pickOf(e.black, 1)})
	wrongTotal := decimal.NewFromInt(1)

	discounted := cart.Add(nil, []cart.Pick{pickOf(e.black, 1)})
	discounted[0].DiscountPercent = decimal.NewFromInt(120)

	subCent := pickOf(e.black, 1)
	subCent.Price = decimal.RequireFromString("10.125")

	tests := []struct {
		name string
		in   sales.CreateOrderInput
		want error
	}{
		{name: "unknown customer", in: sales.CreateOrderInput{CustomerID: "missing", UserID: "user-1", Lines: good}, want: domain.ErrCustomerNotFound},
		{name: "no customer", in: sales.CreateOrderInput{UserID: "user-1", Lines: good}, want: domain.ErrCustomerRequired},
		{name: "no user", in: sales.CreateOrderInput{CustomerID: e.customer.ID, Lines: good}, want: domain.ErrUserRequired},
		{name: "empty cart", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1"}, want: domain.ErrItemsRequired},
		{name: "unknown product", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{{ProductID: "ghost", ModelNo: "X", Quantity: 1, Price: decimal.NewFromInt(1)}})}, want: domain.ErrProductNotFound},
		{name: "deposit without safe", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: good, Deposit: decimal.NewFromInt(10)}, want: domain.ErrSafeRequired},
		{name: "unknown safe", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: good, Deposit: decimal.NewFromInt(10), SafeID: "missing"}, want: domain.ErrSafeNotFound},
		{name: "negative deposit", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: good, Deposit: decimal.NewFromInt(-1)}, want: domain.ErrDepositNegative},
		{name: "total mismatch", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: good, ClientTotal: &wrongTotal}, want: domain.ErrTotalMismatch},
		{name: "discount out of range", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: discounted}, want: domain.ErrDiscountOutOfRange},
		{name: "sub-cent price", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{subCent})}, want: domain.ErrAmountScale},
		{name: "sub-cent deposit", in: sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: good, Deposit: decimal.RequireFromString("0.004"), SafeID: e.safe.ID}, want: domain.ErrAmountScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateOrder(context.Background(), tt.in)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			require.True(t, domain.IsValidation(err), "expected validation category, got %v", err)
		})
	}

	require.Equal(t, int64(10), e.stock(t, e.black.ID))
	require.Empty(t, e.store.Outbox().AllPending())
}

func TestCreateOrder_OverpaymentAllowed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	order, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{pickOf(e.black, 1)}),
		Deposit: decimal.NewFromInt(1000), SafeID: e.safe.ID,
	})
	require.NoError(t, err)
	require.True(t, order.Deposit.Equal(decimal.NewFromInt(1000)))
	require.True(t, order.RemainingDue().Equal(decimal.NewFromInt(-815)))
}

func TestCreateOrder_ResubmissionCreatesSecondOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	in := sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{pickOf(e.black, 1)})}

	first, err := e.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	second, err := e.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Greater(t, second.Number, first.Number)
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	payment, err := e.svc.RecordPayment(ctx, sales.RecordPaymentInput{
		CustomerID: e.customer.ID, SafeID: e.safe.ID, UserID: "user-1", Amount: decimal.NewFromInt(50), Note: "cash",
	})
	require.NoError(t, err)

	history, err := e.ledger.History(ctx, e.safe.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, domain.MovementSourcePayment, history[0].Movement.Source)
	require.Equal(t, payment.ID, history[0].Movement.ReferenceID)
	require.True(t, history[0].Balance.Equal(decimal.NewFromInt(50)))

	got, err := e.svc.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, "cash", got.Note)
	require.Len(t, e.store.Outbox().AllPending(), 2)
}

func TestRecordPayment_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		in   sales.RecordPaymentInput
		want error
	}{
		{name: "zero amount", in: sales.RecordPaymentInput{CustomerID: e.customer.ID, SafeID: e.safe.ID, UserID: "u", Amount: decimal.Zero}, want: domain.ErrPaymentAmountInvalid},
		{name: "negative amount", in: sales.RecordPaymentInput{CustomerID: e.customer.ID, SafeID: e.safe.ID, UserID: "u", Amount: decimal.NewFromInt(-5)}, want: domain.ErrPaymentAmountInvalid},
		{name: "sub-cent amount", in: sales.RecordPaymentInput{CustomerID: e.customer.ID, SafeID: e.safe.ID, UserID: "u", Amount: decimal.RequireFromString("0.001")}, want: domain.ErrAmountScale},
		{name: "unknown customer", in: sales.RecordPaymentInput{CustomerID: "missing", SafeID: e.safe.ID, UserID: "u", Amount: decimal.NewFromInt(5)}, want: domain.ErrCustomerNotFound},
		{name: "unknown safe", in: sales.RecordPaymentInput{CustomerID: e.customer.ID, SafeID: "missing", UserID: "u", Amount: decimal.NewFromInt(5)}, want: domain.ErrSafeNotFound},
		{name: "no safe", in: sales.RecordPaymentInput{CustomerID: e.customer.ID, UserID: "u", Amount: decimal.NewFromInt(5)}, want: domain.ErrSafeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.RecordPayment(context.Background(), tt.in)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			require.True(t, domain.IsValidation(err))
		})
	}

	balance, err := e.ledger.Balance(context.Background(), e.safe.ID, nil)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestCustomerBalance(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "user-1", Lines: cart.Add(nil, []cart.Pick{pickOf(e.black, 2)}),
		Deposit: decimal.NewFromInt(100), SafeID: e.safe.ID,
	})
	require.NoError(t, err)
	_, err = e.svc.RecordPayment(ctx, sales.RecordPaymentInput{
		CustomerID: e.customer.ID, SafeID: e.safe.ID, UserID: "user-1", Amount: decimal.NewFromInt(380),
	})
	require.NoError(t, err)

	st, err := e.svc.CustomerBalance(ctx, e.customer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, st.Orders)
	require.True(t, st.TotalOrdered.Equal(decimal.NewFromInt(1480)))
	require.True(t, st.Outstanding.Equal(decimal.NewFromInt(1000)))

	_, err = e.svc.CustomerBalance(ctx, "missing")
	require.True(t, domain.IsNotFound(err))
}

func TestReadQueries(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	short, err := e.svc.SearchProducts(ctx, " 3 ")
	require.NoError(t, err)
	require.Empty(t, short)

	found, err := e.svc.SearchProducts(ctx, "37")
	require.NoError(t, err)
	require.Len(t, found, 2)

	customers, err := e.svc.SearchCustomers(ctx, "الامل")
	require.NoError(t, err)
	require.Len(t, customers, 1)

	empty, err := e.svc.SearchCustomers(ctx, "  ")
	require.NoError(t, err)
	require.Empty(t, empty)

	all, err := e.svc.ListCustomers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = e.svc.GetOrder(ctx, "missing")
	require.True(t, errors.Is(err, domain.ErrOrderNotFound))
	_, err = e.svc.Invoice(ctx, "missing")
	require.True(t, domain.IsNotFound(err))
}

func TestInvoice_UnknownUserFallsBackToID(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	order, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{
		CustomerID: e.customer.ID, UserID: "external-42", Lines: cart.Add(nil, []cart.Pick{pickOf(e.black, 1)}),
	})
	require.NoError(t, err)

	inv, err := e.svc.Invoice(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "external-42", inv.UserName)
}

func TestCreateOrder_SameModelAtTwoDiscountsPrintsTwoGroups(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	discounted := pickOf(e.red, 1)
	discounted.DiscountPercent = decimal.NewFromInt(15)
	discounted.Price = domain.DiscountedPrice(e.red.Price, discounted.DiscountPercent)

	lines := cart.Add(nil, []cart.Pick{pickOf(e.black, 1)})
	lines = cart.Add(lines, []cart.Pick{discounted})

	order, err := e.svc.CreateOrder(ctx, sales.CreateOrderInput{CustomerID: e.customer.ID, UserID: "user-1", Lines: lines})
	require.NoError(t, err)

	stored, err := e.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	byProduct := make(map[string]domain.OrderItem, len(stored.Items))
	for _, item := range stored.Items {
		byProduct[item.ProductID] = item
	}
	require.True(t, byProduct[e.red.ID].DiscountPercent.Equal(decimal.NewFromInt(15)))
	require.True(t, byProduct[e.black.ID].DiscountPercent.IsZero())

	inv, err := e.svc.Invoice(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, inv.Groups, 2)
	for _, g := range inv.Groups {
		require.True(t, g.OriginalPriceKnown)
		require.True(t, g.OriginalPrice.Equal(decimal.NewFromInt(185)), "group %s@%s original %s", g.ModelNo, g.DiscountPercent, g.OriginalPrice)
	}
}
