package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const paymentColumns = `id, customer_id, safe_id, user_id, amount, note, created_at`

type paymentRow struct {
	ID         string          `db:"id"`
	CustomerID string          `db:"customer_id"`
	SafeID     string          `db:"safe_id"`
	UserID     string          `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Note       string          `db:"note"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (r paymentRow) toDomain() domain.Payment {
	return domain.Payment{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		SafeID:     r.SafeID,
		UserID:     r.UserID,
		Amount:     r.Amount,
		Note:       r.Note,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

// Create сохраняет платёж вместе с его движением по кассе.
func (r *paymentRepository) Create(ctx context.Context, write domain.PaymentWrite) error {
	p := write.Payment
	if errs := p.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	return withTx(ctx, r.db, "create payment", func(tx *sqlx.Tx) error {
		if err := requireCustomer(ctx, tx, p.CustomerID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (`+paymentColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, p.ID, p.CustomerID, p.SafeID, p.UserID, p.Amount, p.Note, p.CreatedAt)
		switch {
		case err == nil:
		case isForeignKeyViolation(err):
			return domain.ErrSafeNotFound
		default:
			return translate("insert payment", err, nil)
		}

		if err := insertMovement(ctx, tx, write.Movement); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, write.Events, p.CreatedAt)
	})
}

func (r *paymentRepository) Get(ctx context.Context, id string) (domain.Payment, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row paymentRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id); err != nil {
		return domain.Payment{}, translate("get payment", err, domain.ErrPaymentNotFound)
	}
	return row.toDomain(), nil
}

// ListByCustomer возвращает платежи клиента в хронологическом порядке.
func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Payment, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []paymentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE customer_id = $1
		ORDER BY created_at, id
	`, customerID)
	if err != nil {
		return nil, domain.StorageError("list customer payments", err)
	}

	result := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

var _ domain.PaymentRepository = (*paymentRepository)(nil)
