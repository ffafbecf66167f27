package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// Store: in-memory хранилище для локальной разработки и тестов.
// Все репозитории делят один мьютекс: запись проверяется целиком и только потом применяется,
// поэтому заказ, остатки и движение по кассе меняются вместе или не меняются вовсе.
type Store struct {
	mu sync.RWMutex

	products    map[string]domain.Product
	productKeys map[string]string
	customers   map[string]domain.Customer
	users       map[string]domain.User
	safes       map[string]domain.Safe
	movements   []domain.SafeMovement
	orders      map[string]domain.Order
	orderSeq    int64
	payments    map[string]domain.Payment
	outbox      map[string]*outboxRecord

	commitHook func(op string) error
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]domain.Product),
		productKeys: make(map[string]string),
		customers:   make(map[string]domain.Customer),
		users:       make(map[string]domain.User),
		safes:       make(map[string]domain.Safe),
		orders:      make(map[string]domain.Order),
		payments:    make(map[string]domain.Payment),
		outbox:      make(map[string]*outboxRecord),
	}
}

// SetCommitHook задаёт функцию, вызываемую перед применением записи.
// Ошибка хука имитирует сбой коммита: ничего не применяется.
func (s *Store) SetCommitHook(hook func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = hook
}

// Ping всегда успешен: хранилище живёт в памяти процесса.
func (s *Store) Ping(context.Context) error { return nil }

// Close ничего не освобождает и нужен для общего интерфейса с postgres.
func (s *Store) Close() error { return nil }

// Catalog возвращает репозиторий каталога.
func (s *Store) Catalog() domain.CatalogRepository { return &catalogRepository{s: s} }

// Customers возвращает репозиторий клиентов.
func (s *Store) Customers() domain.CustomerRepository { return &customerRepository{s: s} }

// Users возвращает репозиторий сотрудников.
func (s *Store) Users() domain.UserRepository { return &userRepository{s: s} }

// Safes возвращает репозиторий касс.
func (s *Store) Safes() domain.SafeRepository { return &safeRepository{s: s} }

// Orders возвращает репозиторий заказов.
func (s *Store) Orders() domain.OrderRepository { return &orderRepository{s: s} }

// Payments возвращает репозиторий платежей.
func (s *Store) Payments() domain.PaymentRepository { return &paymentRepository{s: s} }

// Outbox возвращает репозиторий transactional outbox.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }

// commit вызывается под s.mu после всех проверок и до изменения состояния.
func (s *Store) commit(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.StorageError(op, err)
	}
	if s.commitHook != nil {
		if err := s.commitHook(op); err != nil {
			return domain.StorageError(op, err)
		}
	}
	return nil
}

// enqueueLocked кладёт события в outbox; вызывается под s.mu.
func (s *Store) enqueueLocked(events []domain.OutboxMessage, at time.Time) {
	for _, msg := range events {
		s.outbox[msg.ID] = &outboxRecord{
			msg:       msg,
			status:    outboxStatusPending,
			createdAt: at,
			updatedAt: at,
		}
	}
}
