// Команда loadtest гоняет сценарии продаж против работающего SalesService
// и печатает сводку по задержкам и кодам ответов.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	grpcsvc "github.com/vladislavdragonenkov/wholesale/internal/service/grpc"
)

type loadMode string

const (
	modeSearch   loadMode = "search"
	modeOrder    loadMode = "order"
	modeOrderPay loadMode = "order-pay"
)

type config struct {
	addr         string
	total        int
	totalSet     bool
	duration     time.Duration
	concurrency  int
	connections  int
	timeout      time.Duration
	mode         loadMode
	payRate      int
	term         string
	customerTerm string
	safeID       string
	userID       string
	quantity     int64
	deposit      decimal.Decimal
	discount     decimal.Decimal
	outputPath   string
}

// salesClient: подмножество grpcsvc.Client, нужное сценариям.
type salesClient interface {
	SearchProducts(ctx context.Context, req *grpcsvc.SearchRequest, opts ...grpc.CallOption) (*grpcsvc.SearchProductsResponse, error)
	SearchCustomers(ctx context.Context, req *grpcsvc.SearchRequest, opts ...grpc.CallOption) (*grpcsvc.CustomersResponse, error)
	ListSafes(ctx context.Context, req *grpcsvc.ListSafesRequest, opts ...grpc.CallOption) (*grpcsvc.ListSafesResponse, error)
	CreateOrder(ctx context.Context, req *grpcsvc.CreateOrderRequest, opts ...grpc.CallOption) (*grpcsvc.OrderResponse, error)
	RecordPayment(ctx context.Context, req *grpcsvc.RecordPaymentRequest, opts ...grpc.CallOption) (*grpcsvc.PaymentResponse, error)
}

// targets: справочные идентификаторы, найденные один раз до старта нагрузки.
type targets struct {
	customerID string
	safeID     string
}

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var (
		cfg           config
		modeValue     string
		depositValue  string
		discountValue string
		timeoutValue  string
		durationValue string
	)

	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m, 15m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	fs.StringVar(&timeoutValue, "timeout", "5s", "per-RPC timeout")
	fs.StringVar(&modeValue, "mode", string(modeOrder), "load mode: search | order | order-pay")
	fs.IntVar(&cfg.payRate, "pay-rate", 100, "share of orders followed by a payment in order-pay mode, percent (0..100)")
	fs.StringVar(&cfg.term, "term", "3700", "model number searched by every scenario")
	fs.StringVar(&cfg.customerTerm, "customer", "C-001", "customer search term; the first match places the orders")
	fs.StringVar(&cfg.safeID, "safe-id", "", "safe for deposits and payments (default: first safe)")
	fs.StringVar(&cfg.userID, "user-id", "user-admin", "employee recorded on orders and payments")
	fs.Int64Var(&cfg.quantity, "quantity", 1, "pieces per order")
	fs.StringVar(&depositValue, "deposit", "0", "deposit taken with every order")
	fs.StringVar(&discountValue, "discount", "0", "discount percent applied to the list price of every pick")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.timeout, err = time.ParseDuration(strings.TrimSpace(timeoutValue)); err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	if cfg.duration, err = time.ParseDuration(strings.TrimSpace(durationValue)); err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	if cfg.deposit, err = decimal.NewFromString(strings.TrimSpace(depositValue)); err != nil {
		return cfg, fmt.Errorf("parse deposit: %w", err)
	}
	if cfg.discount, err = decimal.NewFromString(strings.TrimSpace(discountValue)); err != nil {
		return cfg, fmt.Errorf("parse discount: %w", err)
	}
	if cfg.mode, err = parseMode(modeValue); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.payRate < 0 || cfg.payRate > 100:
		return cfg, errors.New("pay-rate must be between 0 and 100")
	case cfg.quantity <= 0:
		return cfg, errors.New("quantity must be > 0")
	case cfg.deposit.IsNegative():
		return cfg, errors.New("deposit must be >= 0")
	case !domain.ValidDiscount(cfg.discount):
		return cfg, errors.New("discount must be between 0 and 100")
	case strings.TrimSpace(cfg.term) == "":
		return cfg, errors.New("term is required")
	case cfg.mode != modeSearch && strings.TrimSpace(cfg.customerTerm) == "":
		return cfg, errors.New("customer is required for order modes")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeSearch, modeOrder, modeOrderPay:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	clients := make([]salesClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		conns = append(conns, conn)
		clients = append(clients, grpcsvc.NewClient(conn))
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	tgt, err := resolveTargets(clients[0], cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "resolve targets: %v\n", err)
		os.Exit(1)
	}

	result := runLoad(clients, cfg, tgt)
	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// resolveTargets находит клиента и кассу, на которые пойдут заказы.
func resolveTargets(client salesClient, cfg config) (targets, error) {
	var tgt targets
	if cfg.mode == modeSearch {
		return tgt, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	customers, err := client.SearchCustomers(ctx, &grpcsvc.SearchRequest{Term: cfg.customerTerm, Limit: 1})
	if err != nil {
		return tgt, fmt.Errorf("search customers: %w", err)
	}
	if len(customers.Customers) == 0 {
		return tgt, fmt.Errorf("no customer matches %q", cfg.customerTerm)
	}
	tgt.customerID = customers.Customers[0].ID

	tgt.safeID = strings.TrimSpace(cfg.safeID)
	if tgt.safeID == "" {
		safes, err := client.ListSafes(ctx, &grpcsvc.ListSafesRequest{})
		if err != nil {
			return tgt, fmt.Errorf("list safes: %w", err)
		}
		if len(safes.Safes) == 0 {
			return tgt, errors.New("no safes configured")
		}
		tgt.safeID = safes.Safes[0].ID
	}
	return tgt, nil
}

func runLoad(clients []salesClient, cfg config, tgt targets) report {
	startedAt := time.Now()
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(cli salesClient) {
			defer wg.Done()
			for id := range jobs {
				if err := runScenario(cli, cfg, tgt, id, col); err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}
	return result
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

func runScenario(client salesClient, cfg config, tgt targets, index int, col *collector) (err error) {
	scenarioStart := time.Now()
	defer func() {
		col.record(scenarioMethod, time.Since(scenarioStart), grpcCode(err))
	}()

	products, err := callSearchProducts(client, cfg, col)
	if err != nil {
		return err
	}
	if cfg.mode == modeSearch {
		return nil
	}

	product, ok := pickProduct(products, cfg.quantity)
	if !ok {
		return status.Errorf(codes.FailedPrecondition, "no sellable product for %q", cfg.term)
	}

	order, err := callCreateOrder(client, cfg, tgt, product, col)
	if err != nil {
		return err
	}
	if order.ID == "" {
		return status.Error(codes.Internal, "create response returned empty order id")
	}

	if cfg.mode != modeOrderPay || !shouldPay(index, cfg.payRate) || !order.RemainingDue.IsPositive() {
		return nil
	}
	return callRecordPayment(client, cfg, tgt, order, col)
}

// pickProduct выбирает первый цвет, который можно продать в нужном количестве.
func pickProduct(products []grpcsvc.Product, quantity int64) (grpcsvc.Product, bool) {
	for _, p := range products {
		if p.Status == string(domain.ProductStatusOpen) || p.StockQty >= quantity {
			return p, true
		}
	}
	return grpcsvc.Product{}, false
}

func callSearchProducts(client salesClient, cfg config, col *collector) ([]grpcsvc.Product, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	resp, err := client.SearchProducts(ctx, &grpcsvc.SearchRequest{Term: cfg.term})
	col.record("SearchProducts", time.Since(start), grpcCode(err))
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func callCreateOrder(client salesClient, cfg config, tgt targets, product grpcsvc.Product, col *collector) (grpcsvc.Order, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	resp, err := client.CreateOrder(ctx, &grpcsvc.CreateOrderRequest{
		CustomerID: tgt.customerID,
		UserID:     cfg.userID,
		Picks: []grpcsvc.Pick{{
			ProductID:       product.ID,
			ModelNo:         product.ModelNo,
			Color:           product.Color,
			Description:     product.Description,
			Quantity:        cfg.quantity,
			Price:           domain.DiscountedPrice(product.Price, cfg.discount),
			DiscountPercent: cfg.discount,
		}},
		Deposit: cfg.deposit,
		SafeID:  tgt.safeID,
	})
	col.record("CreateOrder", time.Since(start), grpcCode(err))
	if err != nil {
		return grpcsvc.Order{}, err
	}
	return resp.Order, nil
}

func callRecordPayment(client salesClient, cfg config, tgt targets, order grpcsvc.Order, col *collector) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	_, err := client.RecordPayment(ctx, &grpcsvc.RecordPaymentRequest{
		CustomerID: tgt.customerID,
		SafeID:     tgt.safeID,
		UserID:     cfg.userID,
		Amount:     order.RemainingDue,
		Note:       fmt.Sprintf("load order %d", order.Number),
	})
	col.record("RecordPayment", time.Since(start), grpcCode(err))
	return err
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}

func shouldPay(index, payRate int) bool {
	if payRate <= 0 {
		return false
	}
	if payRate >= 100 {
		return true
	}
	return index%100 < payRate
}
