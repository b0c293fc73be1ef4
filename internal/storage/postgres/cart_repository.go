package postgres

import (
	"context"
	"fmt"

	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Snapshot returns the user's cart lines ordered by book ID. Checkout
// iterates this order when locking book rows, which keeps lock
// acquisition deterministic across overlapping carts. An empty slice
// means no cart or no lines; neither is an error.
func (r *CartRepository) Snapshot(ctx context.Context, userID string) ([]domain.CartLine, error) {
	const query = `
SELECT cl.id, cl.cart_id, cl.book_id, cl.quantity
FROM cart_lines cl
JOIN carts c ON c.id = cl.cart_id
WHERE c.user_id = $1
ORDER BY cl.book_id ASC`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.BookID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", rows.Err())
	}
	return lines, nil
}

// ClearCart deletes every line of the cart. Called by checkout inside
// the committing transaction.
func (r *CartRepository) ClearCart(ctx context.Context, cartID string) error {
	const stmt = `DELETE FROM cart_lines WHERE cart_id = $1`

	if _, err := r.exec(ctx, stmt, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const query = `SELECT id, user_id, created_at FROM carts WHERE user_id = $1`

	var c domain.Cart
	err := r.queryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

func (r *CartRepository) CreateCart(ctx context.Context, cart domain.Cart) error {
	const stmt = `INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, $3)`

	if _, err := r.exec(ctx, stmt, cart.ID, cart.UserID, cart.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		// Another request created this user's cart first; retrying
		// will find and reuse it.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
		}
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// FindLineByBook returns the cart's line for a book, or nil when the
// book is not yet in the cart.
func (r *CartRepository) FindLineByBook(ctx context.Context, cartID, bookID string) (*domain.CartLine, error) {
	const query = `SELECT id, cart_id, book_id, quantity FROM cart_lines WHERE cart_id = $1 AND book_id = $2`

	var line domain.CartLine
	err := r.queryRow(ctx, query, cartID, bookID).Scan(&line.ID, &line.CartID, &line.BookID, &line.Quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart line: %w", err)
	}
	return &line, nil
}

func (r *CartRepository) GetLine(ctx context.Context, cartID, lineID string) (*domain.CartLine, error) {
	const query = `SELECT id, cart_id, book_id, quantity FROM cart_lines WHERE id = $1 AND cart_id = $2`

	var line domain.CartLine
	err := r.queryRow(ctx, query, lineID, cartID).Scan(&line.ID, &line.CartID, &line.BookID, &line.Quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return &line, nil
}

func (r *CartRepository) InsertLine(ctx context.Context, line domain.CartLine) error {
	const stmt = `INSERT INTO cart_lines (id, cart_id, book_id, quantity) VALUES ($1, $2, $3, $4)`

	if _, err := r.exec(ctx, stmt, line.ID, line.CartID, line.BookID, line.Quantity); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBookNotFound
		}
		// Lost a race with another add of the same book; a retry
		// merges into the existing line.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
		}
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error {
	const stmt = `UPDATE cart_lines SET quantity = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, lineID, quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepository) DeleteLine(ctx context.Context, lineID string) error {
	const stmt = `DELETE FROM cart_lines WHERE id = $1`

	tag, err := r.exec(ctx, stmt, lineID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

// View returns the cart with book display data joined in. A user with
// no cart gets an empty view rather than an error.
func (r *CartRepository) View(ctx context.Context, userID string) (domain.CartView, error) {
	view := domain.CartView{UserID: userID, Lines: []domain.CartLineDetail{}}

	cart, err := r.GetByUser(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	if cart == nil {
		return view, nil
	}
	view.ID = cart.ID

	const query = `
SELECT cl.id, cl.cart_id, cl.book_id, cl.quantity,
       b.id, b.title, b.author, b.genre, b.slug, b.price, b.stock
FROM cart_lines cl
JOIN books b ON b.id = cl.book_id
WHERE cl.cart_id = $1
ORDER BY cl.book_id ASC`

	rows, err := r.query(ctx, query, cart.ID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("view cart: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.CartLineDetail
		if err := rows.Scan(
			&d.ID, &d.CartID, &d.BookID, &d.Quantity,
			&d.Book.ID, &d.Book.Title, &d.Book.Author, &d.Book.Genre, &d.Book.Slug, &d.Book.Price, &d.Book.Stock,
		); err != nil {
			return domain.CartView{}, fmt.Errorf("scan cart view: %w", err)
		}
		view.Lines = append(view.Lines, d)
	}
	if rows.Err() != nil {
		return domain.CartView{}, fmt.Errorf("iterate cart view: %w", rows.Err())
	}
	return view, nil
}

func (r *CartRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CartRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *CartRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
