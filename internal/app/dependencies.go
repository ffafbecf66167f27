package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/wholesale/internal/health"
	"github.com/vladislavdragonenkov/wholesale/internal/ledger"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
	"github.com/vladislavdragonenkov/wholesale/internal/reporting"
	"github.com/vladislavdragonenkov/wholesale/internal/seed"
	"github.com/vladislavdragonenkov/wholesale/internal/service/sales"
	"github.com/vladislavdragonenkov/wholesale/internal/storage/memory"
	"github.com/vladislavdragonenkov/wholesale/internal/storage/postgres"
)

// store: общее между memory и postgres хранилищами.
type store interface {
	Catalog() domain.CatalogRepository
	Customers() domain.CustomerRepository
	Users() domain.UserRepository
	Safes() domain.SafeRepository
	Orders() domain.OrderRepository
	Payments() domain.PaymentRepository
	Ping(ctx context.Context) error
	Close() error
}

// runtimeDependencies: хранилище, выбранное конфигурацией.
type runtimeDependencies struct {
	repos          sales.Repositories
	outboxRepo     domain.OutboxRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func newRuntimeDependencies(s store, outboxRepo domain.OutboxRepository) *runtimeDependencies {
	return &runtimeDependencies{
		repos: sales.Repositories{
			Catalog:   s.Catalog(),
			Customers: s.Customers(),
			Users:     s.Users(),
			Safes:     s.Safes(),
			Orders:    s.Orders(),
			Payments:  s.Payments(),
		},
		outboxRepo:     outboxRepo,
		storageChecker: healthcheck.NewStorageChecker(s),
		closeFn:        s.Close,
	}
}

// initRuntimeDependencies открывает хранилище и, для postgres, применяет миграции.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		s := memory.NewStore()
		logger.Info("using in-memory storage")
		return newRuntimeDependencies(s, s.Outbox()), nil
	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres storage requires dsn")
		}
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("using postgres storage")
		return newRuntimeDependencies(s, s.Outbox()), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}

// Dependencies: прикладные сервисы поверх выбранного хранилища.
type Dependencies struct {
	Sales   *sales.Service
	Ledger  *ledger.Service
	Reports *reporting.Service
	Logger  *log.Entry
}

// NewDependencies собирает сервисы продаж, кассы и отчётов.
func NewDependencies(repos sales.Repositories, cfg Config, salesMetrics *metrics.SalesMetrics, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	options := []sales.Option{
		sales.WithLogger(logger.WithField("component", "sales")),
		sales.WithSearchLimit(cfg.CatalogSearchLimit),
	}
	if salesMetrics != nil {
		options = append(options, sales.WithMetrics(salesMetrics))
	}

	return &Dependencies{
		Sales:   sales.NewService(repos, options...),
		Ledger:  ledger.NewService(repos.Safes, repos.Orders, repos.Payments),
		Reports: reporting.NewService(repos.Orders, repos.Catalog, repos.Users, repos.Safes),
		Logger:  logger,
	}
}

// seedDemoData заполняет справочники, если это включено в конфигурации.
func seedDemoData(ctx context.Context, cfg Config, repos sales.Repositories, logger *log.Entry) error {
	if !cfg.SeedDemoData {
		return nil
	}
	_, err := seed.Run(ctx, seed.Repositories{
		Catalog:   repos.Catalog,
		Customers: repos.Customers,
		Users:     repos.Users,
		Safes:     repos.Safes,
	}, logger.WithField("component", "seed"))
	return err
}
