package postgres

import (
	"context"
	"fmt"

	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateOrder inserts the order row and all of its lines. Callers run
// it inside the checkout transaction so the order and its lines commit
// together or not at all.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const orderStmt = `
INSERT INTO orders (id, user_id, order_number, note, total_cost, payment_status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, orderStmt,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.Note,
		order.TotalCost,
		order.PaymentStatus,
		order.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}

	const lineStmt = `
INSERT INTO order_lines (id, order_id, book_id, quantity, price)
VALUES ($1, $2, $3, $4, $5)`

	for _, line := range order.Lines {
		if _, err := r.exec(ctx, lineStmt, line.ID, line.OrderID, line.BookID, line.Quantity, line.Price); err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

// GetHistory returns the user's orders, newest first, each with its
// lines and their books' display data.
func (r *OrderRepository) GetHistory(ctx context.Context, userID string) ([]domain.Order, error) {
	const query = `
SELECT id, user_id, order_number, note, total_cost, payment_status, created_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	const lineQuery = `
SELECT ol.id, ol.order_id, ol.book_id, ol.quantity, ol.price,
       b.id, b.title, b.author, b.genre, b.slug, b.price, b.stock
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
JOIN books b ON b.id = ol.book_id
WHERE o.user_id = $1
ORDER BY ol.book_id ASC`

	lineRows, err := r.query(ctx, lineQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		line, err := scanOrderLine(lineRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[line.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	if lineRows.Err() != nil {
		return nil, fmt.Errorf("iterate order lines: %w", lineRows.Err())
	}
	return orders, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, user_id, order_number, note, total_cost, payment_status, created_at
FROM orders
WHERE id = $1`

	row := r.queryRow(ctx, query, orderID)
	o, err := scanOrder(row)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	const lineQuery = `
SELECT ol.id, ol.order_id, ol.book_id, ol.quantity, ol.price,
       b.id, b.title, b.author, b.genre, b.slug, b.price, b.stock
FROM order_lines ol
JOIN books b ON b.id = ol.book_id
WHERE ol.order_id = $1
ORDER BY ol.book_id ASC`

	rows, err := r.query(ctx, lineQuery, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return domain.Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	if rows.Err() != nil {
		return domain.Order{}, fmt.Errorf("iterate order lines: %w", rows.Err())
	}
	return o, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Note, &o.TotalCost, &status, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.PaymentStatus = domain.PaymentStatus(status)
	return o, nil
}

func scanOrderLine(row pgx.Row) (domain.OrderLine, error) {
	var line domain.OrderLine
	err := row.Scan(
		&line.ID, &line.OrderID, &line.BookID, &line.Quantity, &line.Price,
		&line.Book.ID, &line.Book.Title, &line.Book.Author, &line.Book.Genre, &line.Book.Slug, &line.Book.Price, &line.Book.Stock,
	)
	if err != nil {
		return domain.OrderLine{}, fmt.Errorf("scan order line: %w", err)
	}
	return line, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
