package app

import (
	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// Order numbers are human-readable references, unique by construction.
func newOrderNumber() string {
	return "ORD-" + uuid.NewString()
}
