package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/approvenow/server/internal/port/outbound"
)

// txContextKey is used to store the transaction in context.
type txContextKeyType struct{}

var txContextKey = txContextKeyType{}

// conn returns the transaction carried by ctx, or db.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translate maps gorm errors onto the port errors.
// The connection must be opened with TranslateError so that unique
// violations arrive as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return outbound.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return outbound.ErrConflict
	default:
		return err
	}
}

// ========== Transaction Adapter ==========

// TransactionAdapter implements outbound.TransactionPort.
type TransactionAdapter struct {
	db *gorm.DB
}

// NewTransactionAdapter creates a new transaction adapter.
func NewTransactionAdapter(db *gorm.DB) *TransactionAdapter {
	return &TransactionAdapter{db: db}
}

// RunInTransaction runs fn in a transaction. Nested calls join the outer one.
func (a *TransactionAdapter) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txContextKey, tx)
		return fn(txCtx)
	})
}

var _ outbound.TransactionPort = (*TransactionAdapter)(nil)
