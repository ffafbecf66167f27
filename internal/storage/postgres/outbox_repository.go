package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

type outboxRepository struct {
	db *sqlx.DB
}

func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := opContext(context.Background())
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	err := withTx(ctx, r.db, "enqueue outbox message", func(tx *sqlx.Tx) error {
		return enqueueTx(ctx, tx, []domain.OutboxMessage{msg}, time.Now().UTC())
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// enqueueTx пишет события в outbox в транзакции бизнес-операции.
func enqueueTx(ctx context.Context, tx *sqlx.Tx, events []domain.OutboxMessage, at time.Time) error {
	for _, msg := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outbox_messages (
				id, aggregate_type, aggregate_id, event_type, payload,
				status, attempt_count, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,0,$7,$7)
		`, msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, outboxStatusPending, at)
		if err != nil {
			return translate("enqueue outbox message", err, nil)
		}
	}
	return nil
}

func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	ctx, cancel := opContext(context.Background())
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	var rows []struct {
		ID            string `db:"id"`
		AggregateType string `db:"aggregate_type"`
		AggregateID   string `db:"aggregate_id"`
		EventType     string `db:"event_type"`
		Payload       []byte `db:"payload"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload
		FROM outbox_messages
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`, outboxStatusPending, limit)
	if err != nil {
		return nil, domain.StorageError("pull pending outbox messages", err)
	}

	result := make([]domain.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.OutboxMessage(row))
	}
	return result, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := opContext(context.Background())
	defer cancel()

	var row struct {
		Count  int          `db:"count"`
		Oldest sql.NullTime `db:"oldest"`
	}
	if err := r.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS count, MIN(created_at) AS oldest
		FROM outbox_messages
		WHERE status = $1
	`, outboxStatusPending); err != nil {
		return domain.OutboxStats{}, domain.StorageError("outbox stats", err)
	}

	stats := domain.OutboxStats{PendingCount: row.Count}
	if row.Oldest.Valid {
		stats.OldestPendingAt = row.Oldest.Time.UTC()
	}
	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.markStatus(id, outboxStatusSent)
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.markStatus(id, outboxStatusFailed)
}

func (r *outboxRepository) markStatus(id, status string) error {
	ctx, cancel := opContext(context.Background())
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    updated_at = $3
		WHERE id = $1
	`, id, status, time.Now().UTC())
	if err != nil {
		return domain.StorageError(fmt.Sprintf("mark outbox message as %s", status), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("outbox rows affected", err)
	}
	if affected == 0 {
		return domain.ErrOutboxPublish
	}
	return nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
