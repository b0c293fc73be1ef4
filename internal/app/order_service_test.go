package app

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Iamswart/divest-bookstore/internal/clock"
	"github.com/Iamswart/divest-bookstore/internal/domain"
	"github.com/shopspring/decimal"
)

func TestOrderService_PlaceOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("places order and clears cart", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "12.50", 5)
		env.addCartLine("cart-1", "book-1", 2)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1", Note: "gift wrap"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !order.TotalCost.Equal(decimal.RequireFromString("25.00")) {
			t.Fatalf("expected total 25.00, got %s", order.TotalCost)
		}
		if len(order.Lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(order.Lines))
		}
		line := order.Lines[0]
		if line.Quantity != 2 || !line.Price.Equal(decimal.RequireFromString("12.50")) {
			t.Fatalf("unexpected line: %+v", line)
		}
		if order.PaymentStatus != domain.PaymentStatusPending {
			t.Fatalf("expected Pending, got %s", order.PaymentStatus)
		}
		if !strings.HasPrefix(order.OrderNumber, "ORD-") {
			t.Fatalf("expected ORD- order number, got %s", order.OrderNumber)
		}
		if order.Note != "gift wrap" {
			t.Fatalf("expected note preserved, got %q", order.Note)
		}
		if !order.CreatedAt.Equal(now) {
			t.Fatalf("expected created_at %s, got %s", now, order.CreatedAt)
		}

		if got := env.books["book-1"].stock; got != 3 {
			t.Fatalf("expected stock 3 after purchase, got %d", got)
		}
		if len(env.cartLines) != 0 {
			t.Fatalf("expected cart cleared, got %d lines", len(env.cartLines))
		}
		if len(env.orders) != 1 {
			t.Fatalf("expected order persisted, got %d", len(env.orders))
		}
	})

	t.Run("empty cart fails without side effects", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "12.50", 5)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != domain.ErrEmptyCart {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
		if got := env.books["book-1"].stock; got != 5 {
			t.Fatalf("expected stock untouched, got %d", got)
		}
		if len(env.orders) != 0 {
			t.Fatalf("expected no orders, got %d", len(env.orders))
		}
	})

	t.Run("insufficient stock on one line rolls back every decrement", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "10.00", 10)
		env.addBook("book-2", "8.00", 1)
		env.addCartLine("cart-1", "book-1", 3)
		env.addCartLine("cart-1", "book-2", 2)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}

		if got := env.books["book-1"].stock; got != 10 {
			t.Fatalf("expected book-1 stock restored to 10, got %d", got)
		}
		if got := env.books["book-2"].stock; got != 1 {
			t.Fatalf("expected book-2 stock untouched, got %d", got)
		}
		if len(env.orders) != 0 {
			t.Fatalf("expected no orders, got %d", len(env.orders))
		}
		if len(env.cartLines) != 2 {
			t.Fatalf("expected cart intact, got %d lines", len(env.cartLines))
		}
	})

	t.Run("dangling book reference aborts", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addCartLine("cart-1", "book-missing", 1)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != domain.ErrBookNotFound {
			t.Fatalf("expected ErrBookNotFound, got %v", err)
		}
	})

	t.Run("non-positive quantity is invalid cart state", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "12.50", 5)
		env.addCartLine("cart-1", "book-1", 0)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != domain.ErrInvalidCartState {
			t.Fatalf("expected ErrInvalidCartState, got %v", err)
		}
		if got := env.books["book-1"].stock; got != 5 {
			t.Fatalf("expected stock untouched, got %d", got)
		}
	})

	t.Run("repeat checkout against cleared cart fails with empty cart", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "12.50", 5)
		env.addCartLine("cart-1", "book-1", 2)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		if _, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"}); err != nil {
			t.Fatalf("first placement: %v", err)
		}
		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != domain.ErrEmptyCart {
			t.Fatalf("expected ErrEmptyCart on repeat, got %v", err)
		}
		if got := env.books["book-1"].stock; got != 3 {
			t.Fatalf("expected stock 3 after single purchase, got %d", got)
		}
	})

	t.Run("locks books in ascending id order", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-a", "1.00", 5)
		env.addBook("book-b", "1.00", 5)
		env.addBook("book-c", "1.00", 5)
		// Insertion order deliberately scrambled; Snapshot sorts.
		env.addCartLine("cart-1", "book-c", 1)
		env.addCartLine("cart-1", "book-a", 1)
		env.addCartLine("cart-1", "book-b", 1)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		if _, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"book-a", "book-b", "book-c"}
		if len(env.decrementOrder) != 3 {
			t.Fatalf("expected 3 decrements, got %d", len(env.decrementOrder))
		}
		for i, id := range want {
			if env.decrementOrder[i] != id {
				t.Fatalf("expected decrement order %v, got %v", want, env.decrementOrder)
			}
		}
	})

	t.Run("missing user id is rejected", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: ""})
		if err != domain.ErrUserRequired {
			t.Fatalf("expected ErrUserRequired, got %v", err)
		}
	})
}

func TestOrderService_Reads(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("GetByID returns ErrOrderNotFound when absent", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		_, err := svc.GetByID(context.Background(), "missing")
		if err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("GetHistory returns placed orders", func(t *testing.T) {
		env := newFakeCheckoutEnv()
		env.addBook("book-1", "5.00", 5)
		env.addCartLine("cart-1", "book-1", 1)
		svc := NewOrderService(env, env, env, clock.NewFixed(now))

		placed, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "user-1"})
		if err != nil {
			t.Fatalf("place order: %v", err)
		}

		history, err := svc.GetHistory(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("get history: %v", err)
		}
		if len(history) != 1 || history[0].ID != placed.ID {
			t.Fatalf("unexpected history: %+v", history)
		}

		got, err := svc.GetByID(context.Background(), placed.ID)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if got.OrderNumber != placed.OrderNumber {
			t.Fatalf("expected order %s, got %s", placed.OrderNumber, got.OrderNumber)
		}
	})
}

type fakeBook struct {
	price decimal.Decimal
	stock int
}

// fakeCheckoutEnv implements OrderStore, CartStore, and InventoryLedger
// over in-memory maps. WithTx snapshots state before running fn and
// restores it on error, mirroring a real transaction rollback.
type fakeCheckoutEnv struct {
	books          map[string]fakeBook
	cartLines      []domain.CartLine
	orders         map[string]domain.Order
	decrementOrder []string
}

func newFakeCheckoutEnv() *fakeCheckoutEnv {
	return &fakeCheckoutEnv{
		books:  make(map[string]fakeBook),
		orders: make(map[string]domain.Order),
	}
}

func (f *fakeCheckoutEnv) addBook(id, price string, stock int) {
	f.books[id] = fakeBook{price: decimal.RequireFromString(price), stock: stock}
}

func (f *fakeCheckoutEnv) addCartLine(cartID, bookID string, quantity int) {
	f.cartLines = append(f.cartLines, domain.CartLine{
		ID:       "line-" + bookID,
		CartID:   cartID,
		BookID:   bookID,
		Quantity: quantity,
	})
}

func (f *fakeCheckoutEnv) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	booksBefore := make(map[string]fakeBook, len(f.books))
	for id, b := range f.books {
		booksBefore[id] = b
	}
	linesBefore := append([]domain.CartLine(nil), f.cartLines...)
	ordersBefore := make(map[string]domain.Order, len(f.orders))
	for id, o := range f.orders {
		ordersBefore[id] = o
	}

	if err := fn(ctx); err != nil {
		f.books = booksBefore
		f.cartLines = linesBefore
		f.orders = ordersBefore
		return err
	}
	return nil
}

func (f *fakeCheckoutEnv) Snapshot(_ context.Context, userID string) ([]domain.CartLine, error) {
	lines := append([]domain.CartLine(nil), f.cartLines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].BookID < lines[j].BookID })
	return lines, nil
}

func (f *fakeCheckoutEnv) ClearCart(_ context.Context, cartID string) error {
	kept := f.cartLines[:0]
	for _, line := range f.cartLines {
		if line.CartID != cartID {
			kept = append(kept, line)
		}
	}
	f.cartLines = kept
	return nil
}

func (f *fakeCheckoutEnv) ReserveAndDecrement(_ context.Context, bookID string, quantity int) (decimal.Decimal, error) {
	book, ok := f.books[bookID]
	if !ok {
		return decimal.Decimal{}, domain.ErrBookNotFound
	}
	if quantity > book.stock {
		return decimal.Decimal{}, domain.ErrInsufficientStock
	}
	book.stock -= quantity
	f.books[bookID] = book
	f.decrementOrder = append(f.decrementOrder, bookID)
	return book.price, nil
}

func (f *fakeCheckoutEnv) CreateOrder(_ context.Context, order domain.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeCheckoutEnv) GetHistory(_ context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeCheckoutEnv) GetByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}
