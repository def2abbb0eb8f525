// Package repository holds the winner ledger: the append-only record of
// every guide that has won a draw.
package repository

import (
	"context"

	"github.com/okian/raffle/internal/domain/model"
)

// Store provides read/write access to the winner ledger.
type Store interface {
	// Append records a batch atomically. Either every winner is stored or
	// none is. A guide that already won fails the whole batch with
	// ErrDuplicateGuide.
	Append(ctx context.Context, winners []model.Winner) error

	// ListAll returns every recorded winner in insertion order.
	ListAll(ctx context.Context) ([]model.Winner, error)

	// Count returns the number of recorded winners.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}
