package app

import (
	"context"

	"github.com/Iamswart/divest-bookstore/internal/clock"
	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/shopspring/decimal"
)

// CartStore is the checkout-facing slice of the cart subsystem: a
// side-effect-free snapshot plus the line deletion checkout triggers
// on commit. Snapshot must return lines in ascending book-ID order;
// checkout locks book rows in snapshot order, and the fixed order is
// what prevents lock cycles between overlapping carts.
type CartStore interface {
	Snapshot(ctx context.Context, userID string) ([]domain.CartLine, error)
	ClearCart(ctx context.Context, cartID string) error
}

// InventoryLedger is the only way checkout touches stock. The
// implementation must hold an exclusive lock on the book row until the
// enclosing transaction ends and return the unit price read under it.
type InventoryLedger interface {
	ReserveAndDecrement(ctx context.Context, bookID string, quantity int) (decimal.Decimal, error)
}

type OrderStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrder(ctx context.Context, order domain.Order) error
	GetHistory(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
}

type OrderService struct {
	orders OrderStore
	carts  CartStore
	ledger InventoryLedger
	clock  clock.Clock
}

func NewOrderService(orders OrderStore, carts CartStore, ledger InventoryLedger, clk clock.Clock) *OrderService {
	return &OrderService{
		orders: orders,
		carts:  carts,
		ledger: ledger,
		clock:  clk,
	}
}

type PlaceOrderInput struct {
	UserID string
	Note   string
}

// PlaceOrder converts the user's cart into a committed order: snapshot
// the cart, reserve and decrement stock line by line, record the order
// with the prices captured under lock, clear the cart, commit. Any
// failure rolls the whole transaction back, so a failed checkout is
// indistinguishable from one that never started.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	if in.UserID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}

	now := s.clock.Now()
	var result domain.Order

	err := s.orders.WithTx(ctx, func(txCtx context.Context) error {
		lines, err := s.carts.Snapshot(txCtx, in.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		orderID := newID()
		total := decimal.Zero
		orderLines := make([]domain.OrderLine, 0, len(lines))
		for _, line := range lines {
			// The cart subsystem rejects non-positive quantities; one
			// arriving here means the cart state is corrupt.
			if line.Quantity <= 0 {
				return domain.ErrInvalidCartState
			}
			price, err := s.ledger.ReserveAndDecrement(txCtx, line.BookID, line.Quantity)
			if err != nil {
				return err
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			orderLines = append(orderLines, domain.OrderLine{
				ID:       newID(),
				OrderID:  orderID,
				BookID:   line.BookID,
				Quantity: line.Quantity,
				Price:    price,
			})
		}

		order := domain.Order{
			ID:            orderID,
			UserID:        in.UserID,
			OrderNumber:   newOrderNumber(),
			Note:          in.Note,
			TotalCost:     total,
			PaymentStatus: domain.PaymentStatusPending,
			CreatedAt:     now,
			Lines:         orderLines,
		}

		if err := s.orders.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := s.carts.ClearCart(txCtx, lines[0].CartID); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

func (s *OrderService) GetHistory(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	return s.orders.GetHistory(ctx, userID)
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	return s.orders.GetByID(ctx, orderID)
}
