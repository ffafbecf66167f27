package sales

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/messaging/kafka"
)

func outboxMessage(aggregateType, aggregateID string, eventType kafka.EventType, payload any) (domain.OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     string(eventType),
		Payload:       data,
	}, nil
}

func orderCreatedMessage(order domain.Order) (domain.OutboxMessage, error) {
	lines := make([]kafka.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, kafka.OrderLine{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			Price:           item.Price,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return outboxMessage(kafka.AggregateOrder, order.ID, kafka.EventTypeOrderCreated, kafka.OrderCreatedEvent{
		EventType:   kafka.EventTypeOrderCreated,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Deposit:     order.Deposit,
		Lines:       lines,
		Timestamp:   order.CreatedAt,
	})
}

func paymentRecordedMessage(payment domain.Payment) (domain.OutboxMessage, error) {
	return outboxMessage(kafka.AggregatePayment, payment.ID, kafka.EventTypePaymentRecorded, kafka.PaymentRecordedEvent{
		EventType:  kafka.EventTypePaymentRecorded,
		PaymentID:  payment.ID,
		CustomerID: payment.CustomerID,
		SafeID:     payment.SafeID,
		UserID:     payment.UserID,
		Amount:     payment.Amount,
		Note:       payment.Note,
		Timestamp:  payment.CreatedAt,
	})
}

func movementPostedMessage(m domain.SafeMovement) (domain.OutboxMessage, error) {
	return outboxMessage(kafka.AggregateSafe, m.SafeID, kafka.EventTypeSafeMovementPosted, kafka.SafeMovementPostedEvent{
		EventType:   kafka.EventTypeSafeMovementPosted,
		MovementID:  m.ID,
		SafeID:      m.SafeID,
		Amount:      m.Amount,
		Source:      string(m.Source),
		ReferenceID: m.ReferenceID,
		Timestamp:   m.CreatedAt,
	})
}
