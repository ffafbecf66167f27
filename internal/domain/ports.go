package domain

import (
	"context"
	"time"
)

// CatalogRepository: чтение каталога и заведение товаров (seed/админка).
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	// GetProducts возвращает найденные товары по ID; отсутствующие просто не попадают в map.
	GetProducts(ctx context.Context, ids []string) (map[string]Product, error)
	// SearchByModel ищет подстроку в номере модели без учёта регистра.
	SearchByModel(ctx context.Context, term string, limit int) ([]Product, error)
}

// CustomerRepository хранит клиентов.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]Customer, error)
	// SearchCustomers ищет по имени, телефонам и коду без учёта диакритики.
	SearchCustomers(ctx context.Context, term string, limit int) ([]Customer, error)
}

// UserRepository хранит сотрудников для отображения в накладных и отчётах.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SafeRepository хранит кассы и читает их журнал движений.
type SafeRepository interface {
	CreateSafe(ctx context.Context, safe Safe) (Safe, error)
	GetSafe(ctx context.Context, id string) (Safe, error)
	ListSafes(ctx context.Context) ([]Safe, error)
	// Movements возвращает движения кассы в хронологическом порядке.
	Movements(ctx context.Context, safeID string) ([]SafeMovement, error)
	GetMovement(ctx context.Context, id string) (SafeMovement, error)
}

// OrderWrite: всё, что должно появиться атомарно при создании заказа.
type OrderWrite struct {
	Order Order
	// Deposit задан тогда и только тогда, когда задаток больше нуля.
	Deposit *SafeMovement
	Events  []OutboxMessage
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create в одной транзакции вставляет шапку, позиции, списывает остатки,
	// пишет движение задатка и события outbox. Номер заказа назначает хранилище.
	Create(ctx context.Context, write OrderWrite) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// ListByCustomer возвращает заказы клиента, новые первыми; limit<=0 снимает ограничение.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
	// ListBetween возвращает заказы с from <= CreatedAt < to в хронологическом порядке.
	ListBetween(ctx context.Context, from, to time.Time) ([]Order, error)
}

// PaymentWrite: платёж и его единственное движение по кассе.
type PaymentWrite struct {
	Payment  Payment
	Movement SafeMovement
	Events   []OutboxMessage
}

// PaymentRepository хранит отдельные оплаты.
type PaymentRepository interface {
	Create(ctx context.Context, write PaymentWrite) error
	Get(ctx context.Context, id string) (Payment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Payment, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
