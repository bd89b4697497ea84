package fragment

import (
	"context"

	"github.com/google/uuid"
)

// Store is the narrow persistence contract the fragment service consumes.
// Implementations must write metadata and data as one atomic unit: a reader
// must never observe metadata whose size disagrees with the stored data, or
// one of the two without the other. Every lookup is scoped by owner, and a
// fragment owned by someone else is indistinguishable from an absent one:
// both are ErrNotFound.
type Store interface {
	// Save persists a new fragment. The caller provides complete metadata.
	Save(ctx context.Context, meta Metadata, data []byte) error
	// Replace overwrites the data of an existing fragment together with
	// its refreshed size and updated timestamp. ErrNotFound if the
	// fragment does not exist for meta.OwnerID.
	Replace(ctx context.Context, meta Metadata, data []byte) error
	// Get returns metadata only.
	Get(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, error)
	// GetData returns metadata together with the raw payload.
	GetData(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, []byte, error)
	// Delete removes metadata and data together. ErrNotFound if absent.
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	// List returns metadata for every fragment the owner has. Order is
	// not significant.
	List(ctx context.Context, ownerID string) ([]Metadata, error)
}
