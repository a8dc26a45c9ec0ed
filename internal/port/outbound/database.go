package outbound

import (
	"context"
	"errors"
)

// Errors returned by persistence adapters. Domains map them to their own errors.
var (
	// ErrRecordNotFound is returned when a lookup matches no row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional write matched no row in the
	// expected state, or a uniqueness constraint rejected the write.
	ErrConflict = errors.New("record conflict")
)

// TransactionPort runs a function inside a store transaction.
// Adapters called with the ctx passed to fn participate in the transaction.
type TransactionPort interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
