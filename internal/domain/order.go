package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// Order is a committed purchase. Immutable after checkout except for
// the payment status, which an external payment flow updates.
type Order struct {
	ID            string
	UserID        string
	OrderNumber   string
	Note          string
	TotalCost     decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	Lines         []OrderLine
}

// OrderLine records one purchased book. Price is the unit price at the
// moment stock was decremented; it never tracks later catalog changes.
type OrderLine struct {
	ID       string
	OrderID  string
	BookID   string
	Quantity int
	Price    decimal.Decimal
	// Book carries display data on read paths; zero value on writes.
	Book Book
}
