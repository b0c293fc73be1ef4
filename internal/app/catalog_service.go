package app

import (
	"context"
	"strings"

	"github.com/Iamswart/divest-bookstore/internal/clock"
	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/shopspring/decimal"
)

type CatalogRepository interface {
	Search(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error)
	GetByID(ctx context.Context, bookID string) (domain.Book, error)
	Create(ctx context.Context, book domain.Book) error
}

// StockLedger is the catalog-management side of the inventory ledger.
// Its writes take the same row lock as checkout, so restocks and price
// changes serialize with concurrent orders.
type StockLedger interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Restock(ctx context.Context, bookID string, delta int) (int, error)
	UpdatePrice(ctx context.Context, bookID string, price decimal.Decimal) error
}

type CatalogService struct {
	repo   CatalogRepository
	ledger StockLedger
	clock  clock.Clock
}

func NewCatalogService(repo CatalogRepository, ledger StockLedger, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:   repo,
		ledger: ledger,
		clock:  clk,
	}
}

type SearchBooksInput struct {
	Title  string
	Author string
	Genre  string
}

func (s *CatalogService) SearchBooks(ctx context.Context, in SearchBooksInput) ([]domain.Book, error) {
	return s.repo.Search(ctx, domain.BookFilter{
		Title:  in.Title,
		Author: in.Author,
		Genre:  in.Genre,
	})
}

func (s *CatalogService) GetBook(ctx context.Context, bookID string) (domain.Book, error) {
	if bookID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, bookID)
}

type CreateBookInput struct {
	Title  string
	Author string
	Genre  string
	Price  decimal.Decimal
	Stock  int
}

func (s *CatalogService) CreateBook(ctx context.Context, in CreateBookInput) (domain.Book, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Book{}, domain.ErrTitleRequired
	}
	if strings.TrimSpace(in.Author) == "" {
		return domain.Book{}, domain.ErrAuthorRequired
	}
	if strings.TrimSpace(in.Genre) == "" {
		return domain.Book{}, domain.ErrGenreRequired
	}
	if in.Price.IsNegative() {
		return domain.Book{}, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Book{}, domain.ErrInvalidStock
	}

	now := s.clock.Now()
	book := domain.Book{
		ID:        newID(),
		Title:     in.Title,
		Author:    in.Author,
		Genre:     in.Genre,
		Slug:      slugify(in.Title) + "-" + newID(),
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// RestockBook adds quantity units to a book's stock and returns the
// new level.
func (s *CatalogService) RestockBook(ctx context.Context, bookID string, quantity int) (int, error) {
	if bookID == "" {
		return 0, domain.ErrInvalidID
	}
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	var stock int
	err := s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = s.ledger.Restock(txCtx, bookID, quantity)
		return err
	})
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// UpdateBookPrice changes the catalog price for future checkouts.
// Already-committed order lines keep their captured price.
func (s *CatalogService) UpdateBookPrice(ctx context.Context, bookID string, price decimal.Decimal) error {
	if bookID == "" {
		return domain.ErrInvalidID
	}
	if price.IsNegative() {
		return domain.ErrInvalidPrice
	}
	return s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		return s.ledger.UpdatePrice(txCtx, bookID, price)
	})
}

// slugify lowercases and strips the title down to hyphen-separated
// alphanumerics, matching the catalog's public URL scheme.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
