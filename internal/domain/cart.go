package domain

import "time"

// Cart holds a user's not-yet-purchased selections. One cart per user.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// CartLine is one (book, quantity) entry in a cart. Lines are deleted
// as part of the checkout transaction that consumes them.
type CartLine struct {
	ID       string
	CartID   string
	BookID   string
	Quantity int
}

// CartLineDetail pairs a line with its book's display data for read views.
type CartLineDetail struct {
	CartLine
	Book Book
}

// CartView is the cart as presented to a user. A user with no cart row
// gets a view with an empty ID and no lines.
type CartView struct {
	ID     string
	UserID string
	Lines  []CartLineDetail
}
