package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Search lists books matching the filter with case-insensitive
// contains semantics, AND-combined.
func (r *CatalogRepository) Search(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	query := `
SELECT id, title, author, genre, slug, price, stock, created_at, updated_at
FROM books`

	var conds []string
	var args []any
	addCond := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", column, len(args)))
	}
	addCond("title", filter.Title)
	addCond("author", filter.Author)
	addCond("genre", filter.Genre)

	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Slug, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate books: %w", rows.Err())
	}
	return books, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, bookID string) (domain.Book, error) {
	const query = `
SELECT id, title, author, genre, slug, price, stock, created_at, updated_at
FROM books
WHERE id = $1`

	var b domain.Book
	err := r.pool.QueryRow(ctx, query, bookID).
		Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Slug, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Book{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *CatalogRepository) Create(ctx context.Context, book domain.Book) error {
	const stmt = `
INSERT INTO books (id, title, author, genre, slug, price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	_, err := r.pool.Exec(ctx, stmt,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.Slug,
		book.Price,
		book.Stock,
		book.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}
