package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const movementColumns = `id, safe_id, amount, source, reference_id, created_at`

type movementRow struct {
	ID          string          `db:"id"`
	SafeID      string          `db:"safe_id"`
	Amount      decimal.Decimal `db:"amount"`
	Source      string          `db:"source"`
	ReferenceID string          `db:"reference_id"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r movementRow) toDomain() domain.SafeMovement {
	return domain.SafeMovement{
		ID:          r.ID,
		SafeID:      r.SafeID,
		Amount:      r.Amount,
		Source:      domain.MovementSource(r.Source),
		ReferenceID: r.ReferenceID,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type safeRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type safeRepository struct {
	db *sqlx.DB
}

// CreateSafe заводит кассу; имя уникально.
func (r *safeRepository) CreateSafe(ctx context.Context, safe domain.Safe) (domain.Safe, error) {
	safe.Name = strings.TrimSpace(safe.Name)
	if safe.Name == "" {
		return domain.Safe{}, domain.ErrSafeNameRequired
	}
	if safe.ID == "" {
		safe.ID = uuid.NewString()
	}
	if safe.CreatedAt.IsZero() {
		safe.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO safes (id, name, created_at) VALUES ($1, $2, $3)`,
		safe.ID, safe.Name, safe.CreatedAt)
	if err != nil {
		return domain.Safe{}, translate("insert safe", err, nil)
	}
	return safe, nil
}

func (r *safeRepository) GetSafe(ctx context.Context, id string) (domain.Safe, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row safeRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM safes WHERE id = $1`, id); err != nil {
		return domain.Safe{}, translate("get safe", err, domain.ErrSafeNotFound)
	}
	return domain.Safe{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (r *safeRepository) ListSafes(ctx context.Context) ([]domain.Safe, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []safeRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM safes ORDER BY name`); err != nil {
		return nil, domain.StorageError("list safes", err)
	}
	result := make([]domain.Safe, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Safe{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()})
	}
	return result, nil
}

// Movements возвращает журнал кассы; при равном времени порядок определяет seq вставки.
func (r *safeRepository) Movements(ctx context.Context, safeID string) ([]domain.SafeMovement, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []movementRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+movementColumns+`
		FROM safe_movements
		WHERE safe_id = $1
		ORDER BY created_at, seq
	`, safeID)
	if err != nil {
		return nil, domain.StorageError("list safe movements", err)
	}

	result := make([]domain.SafeMovement, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *safeRepository) GetMovement(ctx context.Context, id string) (domain.SafeMovement, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row movementRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+movementColumns+` FROM safe_movements WHERE id = $1`, id); err != nil {
		return domain.SafeMovement{}, translate("get safe movement", err, domain.ErrMovementNotFound)
	}
	return row.toDomain(), nil
}

// insertMovement пишет движение в рамках транзакции заказа или платежа.
func insertMovement(ctx context.Context, tx *sqlx.Tx, m domain.SafeMovement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO safe_movements (`+movementColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID, m.SafeID, m.Amount, string(m.Source), m.ReferenceID, m.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return domain.ErrSafeNotFound
	default:
		return translate("insert safe movement", err, nil)
	}
}

var _ domain.SafeRepository = (*safeRepository)(nil)
