package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

const orderColumns = `id, number, customer_id, user_id, total_amount, deposit, created_at`

type orderRow struct {
	ID          string          `db:"id"`
	Number      int64           `db:"number"`
	CustomerID  string          `db:"customer_id"`
	UserID      string          `db:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Deposit     decimal.Decimal `db:"deposit"`
	CreatedAt   time.Time       `db:"created_at"`
}

type orderItemRow struct {
	ID              string          `db:"id"`
	OrderID         string          `db:"order_id"`
	ProductID       string          `db:"product_id"`
	Quantity        int64           `db:"quantity"`
	Price           decimal.Decimal `db:"price"`
	DiscountPercent decimal.Decimal `db:"discount_percent"`
	ModelNo         string          `db:"model_no"`
	Color           string          `db:"color"`
	Description     string          `db:"description"`
}

type productSnapshot struct {
	ModelNo     string `db:"model_no"`
	Color       string `db:"color"`
	Description string `db:"description"`
}

type orderRepository struct {
	db *sqlx.DB
}

// Create в одной транзакции списывает остатки в порядке ID товаров, вставляет заказ
// с позициями, движение задатка и события outbox.
func (r *orderRepository) Create(ctx context.Context, write domain.OrderWrite) (domain.Order, error) {
	order := write.Order
	// NUMERIC(14,2) молча округлил бы суммы, поэтому заказ проверяется до записи.
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)

	err := withTx(ctx, r.db, "create order", func(tx *sqlx.Tx) error {
		if err := requireCustomer(ctx, tx, order.CustomerID); err != nil {
			return err
		}

		snapshots := make(map[string]productSnapshot, len(items))
		for _, demand := range domain.StockDemands(items) {
			snapshot, err := decrementStock(ctx, tx, demand, order.CreatedAt)
			if err != nil {
				return err
			}
			snapshots[demand.ProductID] = snapshot
		}

		err := tx.GetContext(ctx, &order.Number, `
			INSERT INTO orders (id, customer_id, user_id, total_amount, deposit, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING number
		`, order.ID, order.CustomerID, order.UserID, order.TotalAmount, order.Deposit, order.CreatedAt)
		if err != nil {
			return translate("insert order", err, nil)
		}

		for i := range items {
			item := &items[i]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			snapshot := snapshots[item.ProductID]
			item.ModelNo, item.Color, item.Description = snapshot.ModelNo, snapshot.Color, snapshot.Description

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (
					id, order_id, position, product_id, quantity, price, discount_percent,
					model_no, color, description
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`,
				item.ID, order.ID, i, item.ProductID, item.Quantity, item.Price, item.DiscountPercent,
				item.ModelNo, item.Color, item.Description,
			); err != nil {
				return translate("insert order item", err, nil)
			}
		}

		if write.Deposit != nil {
			if err := insertMovement(ctx, tx, *write.Deposit); err != nil {
				return err
			}
		}
		return enqueueTx(ctx, tx, write.Events, order.CreatedAt)
	})
	if err != nil {
		return domain.Order{}, err
	}

	order.Items = items
	return order, nil
}

func requireCustomer(ctx context.Context, tx *sqlx.Tx, customerID string) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID); err != nil {
		return domain.StorageError("check customer", err)
	}
	if !exists {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// decrementStock списывает остаток одним UPDATE: закрытая модель не может уйти в минус.
// Если строка не обновилась, отдельный SELECT различает отсутствие товара и нехватку.
func decrementStock(ctx context.Context, tx *sqlx.Tx, demand domain.StockDemand, at time.Time) (productSnapshot, error) {
	var snapshot productSnapshot
	err := tx.GetContext(ctx, &snapshot, `
		UPDATE products
		SET stock_qty = stock_qty - $2,
		    updated_at = $3
		WHERE id = $1
		  AND (status = 'open' OR stock_qty >= $2)
		RETURNING model_no, color, description
	`, demand.ProductID, demand.Quantity, at)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return productSnapshot{}, domain.StorageError("decrement stock", err)
	}

	var current struct {
		ModelNo  string `db:"model_no"`
		Color    string `db:"color"`
		StockQty int64  `db:"stock_qty"`
	}
	err = tx.GetContext(ctx, &current, `SELECT model_no, color, stock_qty FROM products WHERE id = $1`, demand.ProductID)
	if err != nil {
		return productSnapshot{}, translate("check product", err, domain.ErrProductNotFound)
	}
	return productSnapshot{}, domain.InsufficientStockError(current.ModelNo, current.Color, current.StockQty, demand.Quantity)
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var row orderRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		return domain.Order{}, translate("get order", err, domain.ErrOrderNotFound)
	}
	orders, err := r.withItems(ctx, []orderRow{row})
	if err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

// ListByCustomer возвращает заказы клиента, ограничивая выборку limit (если >0).
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	return r.list(ctx, "list customer orders", `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, number DESC
		LIMIT NULLIF($2, 0)
	`, customerID, max(limit, 0))
}

// ListBetween возвращает заказы с from <= created_at < to по возрастанию номера.
func (r *orderRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return r.list(ctx, "list orders between", `
		SELECT `+orderColumns+`
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY number
	`, from, to)
}

func (r *orderRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domain.StorageError(op, err)
	}
	return r.withItems(ctx, rows)
}

// withItems дочитывает позиции одним запросом на всю пачку заказов.
func (r *orderRepository) withItems(ctx context.Context, rows []orderRow) ([]domain.Order, error) {
	result := make([]domain.Order, 0, len(rows))
	if len(rows) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, quantity, price, discount_percent, model_no, color, description
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return nil, domain.StorageError("build order items query", err)
	}

	var itemRows []orderItemRow
	if err := r.db.SelectContext(ctx, &itemRows, r.db.Rebind(query), args...); err != nil {
		return nil, domain.StorageError("list order items", err)
	}

	byOrder := make(map[string][]domain.OrderItem, len(rows))
	for _, it := range itemRows {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], domain.OrderItem{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			Price:           it.Price,
			DiscountPercent: it.DiscountPercent,
			ModelNo:         it.ModelNo,
			Color:           it.Color,
			Description:     it.Description,
		})
	}

	for _, row := range rows {
		result = append(result, domain.Order{
			ID:          row.ID,
			Number:      row.Number,
			CustomerID:  row.CustomerID,
			UserID:      row.UserID,
			TotalAmount: row.TotalAmount,
			Deposit:     row.Deposit,
			Items:       byOrder[row.ID],
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return result, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
