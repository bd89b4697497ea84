package fragment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// PostgresStore keeps each fragment in a single row, metadata columns next
// to the bytea payload, so every write and read covers both as a unit.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed fragment store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, meta Metadata, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO fragments (id, owner_id, content_type, size_bytes, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := s.pool.Exec(ctx, query,
		meta.ID,
		meta.OwnerID,
		meta.ContentType,
		meta.SizeBytes,
		data,
		meta.CreatedAt,
		meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save fragment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, meta Metadata, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE fragments
SET data = $1, size_bytes = $2, updated_at = $3
WHERE id = $4 AND owner_id = $5;`

	tag, err := s.pool.Exec(ctx, query, data, meta.SizeBytes, meta.UpdatedAt, meta.ID, meta.OwnerID)
	if err != nil {
		return fmt.Errorf("replace fragment data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, content_type, size_bytes, created_at, updated_at
FROM fragments
WHERE id = $1 AND owner_id = $2;`

	var meta Metadata
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.ContentType,
		&meta.SizeBytes,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, fmt.Errorf("get fragment: %w", err)
	}
	return meta, nil
}

func (s *PostgresStore) GetData(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, content_type, size_bytes, data, created_at, updated_at
FROM fragments
WHERE id = $1 AND owner_id = $2;`

	var (
		meta Metadata
		data []byte
	)
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.ContentType,
		&meta.SizeBytes,
		&data,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, nil, ErrNotFound
		}
		return Metadata{}, nil, fmt.Errorf("get fragment data: %w", err)
	}
	return meta, data, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `DELETE FROM fragments WHERE id = $1 AND owner_id = $2;`

	tag, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete fragment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, content_type, size_bytes, created_at, updated_at
FROM fragments
WHERE owner_id = $1
ORDER BY created_at DESC;`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	defer rows.Close()

	var fragments []Metadata
	for rows.Next() {
		var meta Metadata
		if err := rows.Scan(&meta.ID, &meta.OwnerID, &meta.ContentType, &meta.SizeBytes, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan fragment metadata: %w", err)
		}
		fragments = append(fragments, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return fragments, nil
}
