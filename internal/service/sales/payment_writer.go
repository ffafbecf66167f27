package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
)

// RecordPaymentInput: оплата клиента в кассу вне заказа.
type RecordPaymentInput struct {
	CustomerID string
	SafeID     string
	UserID     string
	Amount     decimal.Decimal
	Note       string
}

// RecordPayment сохраняет платёж и ровно одно движение по кассе на ту же сумму.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (domain.Payment, error) {
	defer s.writeStarted(metrics.OperationRecordPayment)()

	payment, write, err := s.preparePayment(ctx, in)
	if err != nil {
		s.recordFailure(metrics.OperationRecordPayment, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"customer_id": in.CustomerID,
			"safe_id":     in.SafeID,
		}).Warn("payment rejected")
		return domain.Payment{}, err
	}

	if err := s.repos.Payments.Create(ctx, write); err != nil {
		s.recordFailure(metrics.OperationRecordPayment, err)
		s.logger.WithError(err).WithField("payment_id", payment.ID).Error("payment write failed")
		return domain.Payment{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentRecorded(payment.Amount)
	}
	s.logger.WithFields(log.Fields{
		"payment_id":  payment.ID,
		"customer_id": payment.CustomerID,
		"safe_id":     payment.SafeID,
		"amount":      payment.Amount.String(),
	}).Info("payment recorded")

	return payment, nil
}

func (s *Service) preparePayment(ctx context.Context, in RecordPaymentInput) (domain.Payment, domain.PaymentWrite, error) {
	payment := domain.Payment{
		ID:         uuid.NewString(),
		CustomerID: in.CustomerID,
		SafeID:     in.SafeID,
		UserID:     in.UserID,
		Amount:     in.Amount,
		Note:       in.Note,
		CreatedAt:  s.now(),
	}
	if errs := payment.Validate(); len(errs) > 0 {
		return domain.Payment{}, domain.PaymentWrite{}, errors.Join(errs...)
	}

	if _, err := s.repos.Customers.GetCustomer(ctx, payment.CustomerID); err != nil {
		return domain.Payment{}, domain.PaymentWrite{}, err
	}
	if _, err := s.repos.Safes.GetSafe(ctx, payment.SafeID); err != nil {
		return domain.Payment{}, domain.PaymentWrite{}, err
	}

	movement := payment.Movement(uuid.NewString())
	recorded, err := paymentRecordedMessage(payment)
	if err != nil {
		return domain.Payment{}, domain.PaymentWrite{}, err
	}
	posted, err := movementPostedMessage(movement)
	if err != nil {
		return domain.Payment{}, domain.PaymentWrite{}, err
	}

	return payment, domain.PaymentWrite{
		Payment:  payment,
		Movement: movement,
		Events:   []domain.OutboxMessage{recorded, posted},
	}, nil
}
