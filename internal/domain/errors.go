package domain

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrBookNotFound      = errors.New("book not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCartState  = errors.New("invalid cart state")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartLineNotFound  = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidStock      = errors.New("invalid stock")
	ErrTitleRequired     = errors.New("title required")
	ErrAuthorRequired    = errors.New("author required")
	ErrGenreRequired     = errors.New("genre required")
	ErrUserRequired      = errors.New("user id required")
	ErrInvalidID         = errors.New("invalid id")
	// ErrTransactionFailed marks storage-level faults (deadlock victim,
	// lost connection). Nothing committed; callers may retry verbatim.
	ErrTransactionFailed = errors.New("transaction failed")
)
