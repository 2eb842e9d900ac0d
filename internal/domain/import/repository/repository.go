// Package repository persists user-authored adapters keyed by the
// fingerprint of the file shape they were created for.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
)

var (
	// ErrAdapterStoreUnavailable wraps backend failures. Callers treat it as
	// recoverable and fall back to asking the user for a mapping.
	ErrAdapterStoreUnavailable = errors.New("adapter store unavailable")
	ErrAdapterNotFound         = errors.New("adapter not found")
)

// StoredAdapter is an adapter saved by a user for one file fingerprint.
type StoredAdapter struct {
	UserID    uuid.UUID       `json:"user_id"`
	Hash      string          `json:"hash"`
	Name      string          `json:"name"`
	Adapter   adapter.Adapter `json:"adapter"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AdapterStore is the persistence collaborator of the import flow. Save is
// an upsert on (userID, hash); the last write wins.
type AdapterStore interface {
	Lookup(ctx context.Context, userID uuid.UUID, hash string) (*StoredAdapter, error)
	Save(ctx context.Context, userID uuid.UUID, hash, name string, a adapter.Adapter) error
	List(ctx context.Context, userID uuid.UUID) ([]*StoredAdapter, error)
}

// newestFirst orders by UpdatedAt descending, then by hash.
func newestFirst(a, b *StoredAdapter) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	switch {
	case a.Hash < b.Hash:
		return -1
	case a.Hash > b.Hash:
		return 1
	}
	return 0
}
