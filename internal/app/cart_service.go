package app

import (
	"context"

	"github.com/Iamswart/divest-bookstore/internal/clock"
	"github.com/Iamswart/divest-bookstore/internal/domain"
)

type CartRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart domain.Cart) error
	FindLineByBook(ctx context.Context, cartID, bookID string) (*domain.CartLine, error)
	GetLine(ctx context.Context, cartID, lineID string) (*domain.CartLine, error)
	InsertLine(ctx context.Context, line domain.CartLine) error
	UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteLine(ctx context.Context, lineID string) error
	View(ctx context.Context, userID string) (domain.CartView, error)
}

// BookGetter reads current catalog state for the cart's stock
// pre-checks. Those checks are a courtesy to the shopper; the
// authoritative check happens under lock at checkout.
type BookGetter interface {
	GetByID(ctx context.Context, bookID string) (domain.Book, error)
}

type CartService struct {
	repo  CartRepository
	books BookGetter
	clock clock.Clock
}

func NewCartService(repo CartRepository, books BookGetter, clk clock.Clock) *CartService {
	return &CartService{
		repo:  repo,
		books: books,
		clock: clk,
	}
}

type AddBookInput struct {
	UserID   string
	BookID   string
	Quantity int
}

// AddBook puts a book in the user's cart, creating the cart on first
// use and merging quantities when the book is already present.
func (s *CartService) AddBook(ctx context.Context, in AddBookInput) (domain.CartView, error) {
	if in.UserID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}
	if in.Quantity <= 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}

	book, err := s.books.GetByID(ctx, in.BookID)
	if err != nil {
		return domain.CartView{}, err
	}
	if in.Quantity > book.Stock {
		return domain.CartView{}, domain.ErrInsufficientStock
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetByUser(txCtx, in.UserID)
		if err != nil {
			return err
		}
		if cart == nil {
			created := domain.Cart{
				ID:        newID(),
				UserID:    in.UserID,
				CreatedAt: s.clock.Now(),
			}
			if err := s.repo.CreateCart(txCtx, created); err != nil {
				return err
			}
			cart = &created
		}

		line, err := s.repo.FindLineByBook(txCtx, cart.ID, in.BookID)
		if err != nil {
			return err
		}
		if line != nil {
			merged := line.Quantity + in.Quantity
			if merged > book.Stock {
				return domain.ErrInsufficientStock
			}
			return s.repo.UpdateLineQuantity(txCtx, line.ID, merged)
		}

		return s.repo.InsertLine(txCtx, domain.CartLine{
			ID:       newID(),
			CartID:   cart.ID,
			BookID:   in.BookID,
			Quantity: in.Quantity,
		})
	})
	if err != nil {
		return domain.CartView{}, err
	}

	return s.repo.View(ctx, in.UserID)
}

func (s *CartService) ViewCart(ctx context.Context, userID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}
	return s.repo.View(ctx, userID)
}

type UpdateLineInput struct {
	UserID   string
	LineID   string
	Quantity int
}

func (s *CartService) UpdateLine(ctx context.Context, in UpdateLineInput) (domain.CartView, error) {
	if in.UserID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}
	if in.Quantity <= 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}

	cart, err := s.repo.GetByUser(ctx, in.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	if cart == nil {
		return domain.CartView{}, domain.ErrCartNotFound
	}

	line, err := s.repo.GetLine(ctx, cart.ID, in.LineID)
	if err != nil {
		return domain.CartView{}, err
	}
	if line == nil {
		return domain.CartView{}, domain.ErrCartLineNotFound
	}

	book, err := s.books.GetByID(ctx, line.BookID)
	if err != nil {
		return domain.CartView{}, err
	}
	if in.Quantity > book.Stock {
		return domain.CartView{}, domain.ErrInsufficientStock
	}

	if err := s.repo.UpdateLineQuantity(ctx, line.ID, in.Quantity); err != nil {
		return domain.CartView{}, err
	}
	return s.repo.View(ctx, in.UserID)
}

func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}

	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	if cart == nil {
		return domain.CartView{}, domain.ErrCartNotFound
	}

	line, err := s.repo.GetLine(ctx, cart.ID, lineID)
	if err != nil {
		return domain.CartView{}, err
	}
	if line == nil {
		return domain.CartView{}, domain.ErrCartLineNotFound
	}

	if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
		return domain.CartView{}, err
	}
	return s.repo.View(ctx, userID)
}
