package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType определяет тип события продаж.
type EventType string

const (
	// EventTypeOrderCreated: заказ сохранён, остатки списаны.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypePaymentRecorded: принята отдельная оплата.
	EventTypePaymentRecorded EventType = "payment.recorded"
	// EventTypeSafeMovementPosted: в кассу записано движение.
	EventTypeSafeMovementPosted EventType = "safe.movement.posted"
)

// Агрегаты, к которым относятся события outbox.
const (
	AggregateOrder   = "order"
	AggregatePayment = "payment"
	AggregateSafe    = "safe"
)

// Topics для Kafka
const (
	TopicSalesEvents     = "wholesale.sales.events"
	TopicDeadLetterQueue = "wholesale.sales.dlq"
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOriginalTopic = "x-original-topic"
	HeaderFailedAt      = "x-failed-at"
)

// OrderLine: позиция в событии о заказе.
type OrderLine struct {
	ProductID       string          `json:"product_id"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// OrderCreatedEvent публикуется после коммита заказа. Номер заказа назначает хранилище,
// в событии его нет.
type OrderCreatedEvent struct {
	EventType   EventType       `json:"event_type"`
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Deposit     decimal.Decimal `json:"deposit"`
	Lines       []OrderLine     `json:"lines"`
	Timestamp   time.Time       `json:"timestamp"`
}

// PaymentRecordedEvent публикуется после записи оплаты.
type PaymentRecordedEvent struct {
	EventType  EventType       `json:"event_type"`
	PaymentID  string          `json:"payment_id"`
	CustomerID string          `json:"customer_id"`
	SafeID     string          `json:"safe_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// SafeMovementPostedEvent описывает новое движение по кассе.
type SafeMovementPostedEvent struct {
	EventType   EventType       `json:"event_type"`
	MovementID  string          `json:"movement_id"`
	SafeID      string          `json:"safe_id"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	ReferenceID string          `json:"reference_id"`
	Timestamp   time.Time       `json:"timestamp"`
}
