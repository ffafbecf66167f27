package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const productColumns = `id, model_no, color, description, material, price, stock_qty, status, created_at, updated_at`

type productRow struct {
	ID          string          `db:"id"`
	ModelNo     string          `db:"model_no"`
	Color       string          `db:"color"`
	Description string          `db:"description"`
	Material    string          `db:"material"`
	Price       decimal.Decimal `db:"price"`
	StockQty    int64           `db:"stock_qty"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		ModelNo:     r.ModelNo,
		Color:       r.Color,
		Description: r.Description,
		Material:    r.Material,
		Price:       r.Price,
		StockQty:    r.StockQty,
		Status:      domain.ProductStatus(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type catalogRepository struct {
	db *sqlx.DB
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.UpdatedAt = product.CreatedAt

	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		product.ID, product.ModelNo, product.Color, product.Description, product.Material,
		product.Price, product.StockQty, string(product.Status), product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, translate("insert product", err, nil)
	}
	return product, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return domain.Product{}, translate("get product", err, domain.ErrProductNotFound)
	}
	return row.toDomain(), nil
}

func (r *catalogRepository) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, domain.StorageError("build products query", err)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, domain.StorageError("get products", err)
	}
	for _, row := range rows {
		result[row.ID] = row.toDomain()
	}
	return result, nil
}

// SearchByModel ищет подстроку в номере модели без учёта регистра.
func (r *catalogRepository) SearchByModel(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+productColumns+`
		FROM products
		WHERE strpos(lower(model_no), lower(btrim($1))) > 0
		ORDER BY model_no, color
		LIMIT NULLIF($2, 0)
	`, term, max(limit, 0))
	if err != nil {
		return nil, domain.StorageError("search products", err)
	}

	result := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
