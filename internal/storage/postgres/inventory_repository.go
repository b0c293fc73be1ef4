package postgres

import (
	"context"
	"fmt"

	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryRepository is the only write path for book stock. All
// mutations take an exclusive row lock held to transaction end so
// concurrent checkouts and restocks serialize per book.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// ReserveAndDecrement locks the book row, verifies stock covers the
// requested quantity, decrements it, and returns the unit price that
// was in effect under the lock. Must run inside a transaction; the
// lock is what makes a concurrent oversell impossible.
func (r *InventoryRepository) ReserveAndDecrement(ctx context.Context, bookID string, quantity int) (decimal.Decimal, error) {
	const query = `SELECT price, stock FROM books WHERE id = $1 FOR UPDATE`

	var price decimal.Decimal
	var stock int
	err := r.queryRow(ctx, query, bookID).Scan(&price, &stock)
	if err != nil {
		if isInvalidUUID(err) {
			return decimal.Decimal{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return decimal.Decimal{}, domain.ErrBookNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("lock book: %w", err)
	}

	if quantity > stock {
		return decimal.Decimal{}, domain.ErrInsufficientStock
	}

	const stmt = `UPDATE books SET stock = stock - $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.exec(ctx, stmt, bookID, quantity); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decrement stock: %w", err)
	}
	return price, nil
}

// Restock adds delta units under the same lock discipline as checkout
// and returns the new stock level.
func (r *InventoryRepository) Restock(ctx context.Context, bookID string, delta int) (int, error) {
	const query = `SELECT stock FROM books WHERE id = $1 FOR UPDATE`

	var stock int
	err := r.queryRow(ctx, query, bookID).Scan(&stock)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return 0, domain.ErrBookNotFound
		}
		return 0, fmt.Errorf("lock book: %w", err)
	}

	const stmt = `UPDATE books SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.exec(ctx, stmt, bookID, delta); err != nil {
		return 0, fmt.Errorf("restock: %w", err)
	}
	return stock + delta, nil
}

// UpdatePrice changes the catalog price. Committed order lines keep
// the price they captured; only future checkouts see the new one.
func (r *InventoryRepository) UpdatePrice(ctx context.Context, bookID string, price decimal.Decimal) error {
	const stmt = `UPDATE books SET price = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, bookID, price)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
