package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/Iamswart/divest-bookstore/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestInventoryRepository_ReserveAndDecrement(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewInventoryRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("decrements stock and returns price", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 5)

		var price decimal.Decimal
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			price, err = repo.ReserveAndDecrement(txCtx, bookID, 2)
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !price.Equal(decimal.RequireFromString("12.50")) {
			t.Fatalf("expected price 12.50, got %s", price)
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 3 {
			t.Fatalf("expected stock 3, got %d", got)
		}
	})

	t.Run("insufficient stock leaves row untouched", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 1)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			_, err := repo.ReserveAndDecrement(txCtx, bookID, 2)
			return err
		})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 1 {
			t.Fatalf("expected stock 1, got %d", got)
		}
	})

	t.Run("missing book returns ErrBookNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			_, err := repo.ReserveAndDecrement(txCtx, "00000000-0000-0000-0000-000000000001", 1)
			return err
		})
		if err != domain.ErrBookNotFound {
			t.Fatalf("expected ErrBookNotFound, got %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			_, err := repo.ReserveAndDecrement(txCtx, "not-a-uuid", 1)
			return err
		})
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("cancellation mid-transaction rolls back the decrement", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 5)

		txCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := repo.WithTx(txCtx, func(c context.Context) error {
			if _, err := repo.ReserveAndDecrement(c, bookID, 2); err != nil {
				return err
			}
			cancel()
			_, err := repo.ReserveAndDecrement(c, bookID, 1)
			return err
		})
		if err == nil {
			t.Fatalf("expected error after cancellation")
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 5 {
			t.Fatalf("expected stock unchanged at 5, got %d", got)
		}
	})

	t.Run("cancellation before commit rolls back the decrement", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 5)

		txCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := repo.WithTx(txCtx, func(c context.Context) error {
			if _, err := repo.ReserveAndDecrement(c, bookID, 2); err != nil {
				return err
			}
			// The request dies between the last statement and commit.
			cancel()
			return nil
		})
		if !errors.Is(err, domain.ErrTransactionFailed) {
			t.Fatalf("expected ErrTransactionFailed, got %v", err)
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 5 {
			t.Fatalf("expected stock unchanged at 5, got %d", got)
		}
	})

	t.Run("concurrent decrements never oversell", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Rare Print", decimal.RequireFromString("99.00"), 1)

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- repo.WithTx(ctx, func(txCtx context.Context) error {
					_, err := repo.ReserveAndDecrement(txCtx, bookID, 1)
					return err
				})
			}()
		}
		wg.Wait()
		close(results)

		var committed, rejected int
		for err := range results {
			switch err {
			case nil:
				committed++
			case domain.ErrInsufficientStock:
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if committed != 1 || rejected != 1 {
			t.Fatalf("expected exactly one commit and one rejection, got %d/%d", committed, rejected)
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 0 {
			t.Fatalf("expected final stock 0, got %d", got)
		}
	})
}

func TestInventoryRepository_RestockAndPrice(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewInventoryRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("restock adds units", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 2)

		var stock int
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			stock, err = repo.Restock(txCtx, bookID, 8)
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stock != 10 {
			t.Fatalf("expected stock 10, got %d", stock)
		}
		if got := testutil.BookStock(t, ctx, pool, bookID); got != 10 {
			t.Fatalf("expected persisted stock 10, got %d", got)
		}
	})

	t.Run("price update does not rewrite committed order lines", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		bookID := testutil.InsertBook(t, ctx, pool, "Dune", decimal.RequireFromString("12.50"), 5)

		var captured decimal.Decimal
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			captured, err = repo.ReserveAndDecrement(txCtx, bookID, 1)
			return err
		})
		if err != nil {
			t.Fatalf("decrement: %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.UpdatePrice(txCtx, bookID, decimal.RequireFromString("20.00"))
		})
		if err != nil {
			t.Fatalf("update price: %v", err)
		}

		if !captured.Equal(decimal.RequireFromString("12.50")) {
			t.Fatalf("expected captured price 12.50, got %s", captured)
		}

		var current decimal.Decimal
		if err := pool.QueryRow(ctx, `SELECT price FROM books WHERE id = $1`, bookID).Scan(&current); err != nil {
			t.Fatalf("query price: %v", err)
		}
		if !current.Equal(decimal.RequireFromString("20.00")) {
			t.Fatalf("expected catalog price 20.00, got %s", current)
		}
	})

	t.Run("missing book on update", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.UpdatePrice(txCtx, "00000000-0000-0000-0000-000000000001", decimal.RequireFromString("1.00"))
		})
		if err != domain.ErrBookNotFound {
			t.Fatalf("expected ErrBookNotFound, got %v", err)
		}
	})
}
