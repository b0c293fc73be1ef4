package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookFilter narrows a catalog search. Empty fields match everything;
// set fields match with case-insensitive contains semantics, AND-combined.
type BookFilter struct {
	Title  string
	Author string
	Genre  string
}

// Book is a catalog item. Stock is only ever decremented through the
// inventory ledger and only ever increased through catalog restocks,
// both under the same row lock.
type Book struct {
	ID        string
	Title     string
	Author    string
	Genre     string
	Slug      string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
