// Package sales содержит запись заказов и оплат, а также чтения, нужные кассиру и накладной.
package sales

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
)

const (
	defaultSearchLimit = 20
	minSearchTermLen   = 2
)

// Repositories: хранилища, с которыми работает сервис.
type Repositories struct {
	Catalog   domain.CatalogRepository
	Customers domain.CustomerRepository
	Users     domain.UserRepository
	Safes     domain.SafeRepository
	Orders    domain.OrderRepository
	Payments  domain.PaymentRepository
}

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Logger      *log.Entry
	Metrics     *metrics.SalesMetrics
	Clock       func() time.Time
	SearchLimit int
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

// WithMetrics включает метрики продаж.
func WithMetrics(m *metrics.SalesMetrics) Option {
	return func(opts *Options) { opts.Metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) { opts.Clock = clock }
}

// WithSearchLimit задаёт максимальное число результатов поиска.
func WithSearchLimit(limit int) Option {
	return func(opts *Options) { opts.SearchLimit = limit }
}

// Service объединяет запись заказов и оплат с чтениями для UI.
type Service struct {
	repos       Repositories
	logger      *log.Entry
	metrics     *metrics.SalesMetrics
	now         func() time.Time
	searchLimit int
}

// NewService создаёт сервис продаж.
func NewService(repos Repositories, options ...Option) *Service {
	opts := Options{SearchLimit: defaultSearchLimit}
	for _, option := range options {
		option(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "sales")
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}

	return &Service{
		repos:       repos,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Clock,
		searchLimit: opts.SearchLimit,
	}
}

// failureReason сводит ошибку к категории для метрик и логов.
func failureReason(err error) string {
	switch {
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsValidation(err):
		return "validation"
	case domain.IsStorage(err):
		return "storage"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

func (s *Service) writeStarted(operation string) func() {
	if s.metrics == nil {
		return func() {}
	}
	return s.metrics.WriteStarted(operation)
}

func (s *Service) recordFailure(operation string, err error) {
	if s.metrics != nil {
		s.metrics.RecordWriteFailure(operation, failureReason(err))
	}
}
