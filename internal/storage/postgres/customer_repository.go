package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/textfold"
)

const customerColumns = `id, code, name, phone, phone2, address, created_at`

type customerRow struct {
	ID        string         `db:"id"`
	Code      sql.NullString `db:"code"`
	Name      string         `db:"name"`
	Phone     string         `db:"phone"`
	Phone2    string         `db:"phone2"`
	Address   string         `db:"address"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer{
		ID:        r.ID,
		Code:      r.Code.String,
		Name:      r.Name,
		Phone:     r.Phone,
		Phone2:    r.Phone2,
		Address:   r.Address,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type customerRepository struct {
	db *sqlx.DB
}

func (r *customerRepository) CreateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	if errs := customer.Validate(); len(errs) > 0 {
		return domain.Customer{}, errs[0]
	}
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	customer.Code = strings.TrimSpace(customer.Code)
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, code, name, phone, phone2, address, search_key, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
	`,
		customer.ID, customer.Code, customer.Name, customer.Phone, customer.Phone2, customer.Address,
		textfold.Key(customer.Name, customer.Phone, customer.Phone2, customer.Code), customer.CreatedAt,
	)
	if err != nil {
		return domain.Customer{}, translate("insert customer", err, nil)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row customerRow
	err := r.db.GetContext(ctx, &row, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err != nil {
		return domain.Customer{}, translate("get customer", err, domain.ErrCustomerNotFound)
	}
	return row.toDomain(), nil
}

func (r *customerRepository) ListCustomers(ctx context.Context, limit int) ([]domain.Customer, error) {
	return r.query(ctx, "list customers", `
		SELECT `+customerColumns+` FROM customers
		ORDER BY name, id
		LIMIT NULLIF($1, 0)
	`, max(limit, 0))
}

// SearchCustomers сравнивает свёрнутый запрос с search_key, посчитанным при вставке.
func (r *customerRepository) SearchCustomers(ctx context.Context, term string, limit int) ([]domain.Customer, error) {
	folded := textfold.Fold(term)
	if folded == "" {
		return []domain.Customer{}, nil
	}
	return r.query(ctx, "search customers", `
		SELECT `+customerColumns+` FROM customers
		WHERE strpos(search_key, $1) > 0
		ORDER BY name, id
		LIMIT NULLIF($2, 0)
	`, folded, max(limit, 0))
}

func (r *customerRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Customer, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []customerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.StorageError(op, err)
	}
	result := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

type userRepository struct {
	db *sqlx.DB
}

func (r *userRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return domain.User{}, domain.ErrUserNameRequired
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name, created_at) VALUES ($1, $2, $3)`,
		user.ID, user.Name, user.CreatedAt)
	if err != nil {
		return domain.User{}, translate("insert user", err, nil)
	}
	return user, nil
}

func (r *userRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM users WHERE id = $1`, id); err != nil {
		return domain.User{}, translate("get user", err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM users ORDER BY name, id`); err != nil {
		return nil, domain.StorageError("list users", err)
	}
	result := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.UserRepository     = (*userRepository)(nil)
)
