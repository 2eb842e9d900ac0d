package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
)

// DBTX is the subset of *pgxpool.Pool used by PostgresStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps adapters in the custom_adapters table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store on top of a pool.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Lookup(ctx context.Context, userID uuid.UUID, hash string) (*StoredAdapter, error) {
	query := `
		SELECT name, adapter, created_at, updated_at
		FROM custom_adapters
		WHERE user_id = $1 AND hash = $2
	`

	item := StoredAdapter{UserID: userID, Hash: hash}
	var payload []byte
	err := s.db.QueryRow(ctx, query, userID, hash).Scan(
		&item.Name, &payload, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdapterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up adapter: %w", ErrAdapterStoreUnavailable, err)
	}
	if err := json.Unmarshal(payload, &item.Adapter); err != nil {
		return nil, fmt.Errorf("%w: corrupt adapter %s: %w", ErrAdapterStoreUnavailable, hash, err)
	}
	return &item, nil
}

func (s *PostgresStore) Save(ctx context.Context, userID uuid.UUID, hash, name string, a adapter.Adapter) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode adapter: %w", err)
	}

	query := `
		INSERT INTO custom_adapters (user_id, hash, name, adapter)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, hash) DO UPDATE SET
			name = EXCLUDED.name,
			adapter = EXCLUDED.adapter,
			updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, userID, hash, name, payload); err != nil {
		return fmt.Errorf("%w: failed to save adapter: %w", ErrAdapterStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) ([]*StoredAdapter, error) {
	query := `
		SELECT hash, name, adapter, created_at, updated_at
		FROM custom_adapters
		WHERE user_id = $1
		ORDER BY updated_at DESC, hash
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list adapters: %w", ErrAdapterStoreUnavailable, err)
	}
	defer rows.Close()

	out := make([]*StoredAdapter, 0)
	for rows.Next() {
		item := StoredAdapter{UserID: userID}
		var payload []byte
		if err := rows.Scan(&item.Hash, &item.Name, &payload, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan adapter: %w", ErrAdapterStoreUnavailable, err)
		}
		if err := json.Unmarshal(payload, &item.Adapter); err != nil {
			return nil, fmt.Errorf("%w: corrupt adapter %s: %w", ErrAdapterStoreUnavailable, item.Hash, err)
		}
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdapterStoreUnavailable, err)
	}
	return out, nil
}
