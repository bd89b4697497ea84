package fragment

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/fragstore/internal/metrics"
	"github.com/google/uuid"
)

// Service owns the fragment lifecycle: validation on write, ownership
// scoping on every lookup, and conversion on read. It keeps no state of
// its own beyond the injected store, so a single instance serves all
// requests concurrently.
type Service struct {
	store    Store
	maxBytes int64
	nowFunc  func() time.Time
}

// NewService constructs a fragment service over the given store.
func NewService(store Store, maxBytes int64) *Service {
	return &Service{
		store:    store,
		maxBytes: maxBytes,
		nowFunc:  time.Now,
	}
}

// Create validates the declared type against the payload and persists a new
// fragment. The metadata and data are committed together.
func (s *Service) Create(ctx context.Context, ownerID, contentType string, data []byte) (Metadata, error) {
	parsed, err := ParseContentType(contentType)
	if err != nil {
		return Metadata{}, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Metadata{}, ErrTooLarge
	}
	if err := ValidatePayload(data, parsed.Essence); err != nil {
		return Metadata{}, err
	}

	now := s.nowFunc().UTC()
	meta := Metadata{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ContentType: parsed.String(),
		SizeBytes:   int64(len(data)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Save(ctx, meta, data); err != nil {
		return Metadata{}, fmt.Errorf("persist fragment: %w", err)
	}
	return meta, nil
}

// Get returns metadata for the owner's fragment.
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, error) {
	return s.store.Get(ctx, ownerID, id)
}

// GetData returns the fragment payload, converted into the essence the
// extension maps to when one is given. The returned content type is the
// stored type for raw reads and the bare target essence for conversions.
func (s *Service) GetData(ctx context.Context, ownerID string, id uuid.UUID, ext string) ([]byte, string, error) {
	meta, data, err := s.store.GetData(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	if ext == "" {
		return data, meta.ContentType, nil
	}

	target, ok := TypeForExtension(ext)
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedConversion, ext)
	}

	stored, err := ParseContentType(meta.ContentType)
	if err != nil {
		return nil, "", fmt.Errorf("stored type %q: %w", meta.ContentType, err)
	}

	converted, err := Convert(data, stored.Essence, target)
	if err != nil {
		return nil, "", err
	}

	metrics.ObserveConversion(stored.Essence, target)
	return converted, target, nil
}

// Update replaces the fragment's data. The declared content type must carry
// the same essence the fragment was created with; the type itself never
// changes, and a mismatch leaves the stored data untouched.
func (s *Service) Update(ctx context.Context, ownerID string, id uuid.UUID, contentType string, data []byte) (Metadata, error) {
	parsed, err := ParseContentType(contentType)
	if err != nil {
		return Metadata{}, err
	}

	meta, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return Metadata{}, err
	}

	stored, err := ParseContentType(meta.ContentType)
	if err != nil {
		return Metadata{}, fmt.Errorf("stored type %q: %w", meta.ContentType, err)
	}
	if parsed.Essence != stored.Essence {
		return Metadata{}, fmt.Errorf("%w: fragment is %s, declared %s", ErrTypeImmutable, stored.Essence, parsed.Essence)
	}

	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Metadata{}, ErrTooLarge
	}
	if err := ValidatePayload(data, stored.Essence); err != nil {
		return Metadata{}, err
	}

	meta.SizeBytes = int64(len(data))
	meta.UpdatedAt = s.nowFunc().UTC()

	if err := s.store.Replace(ctx, meta, data); err != nil {
		if err == ErrNotFound {
			return Metadata{}, err
		}
		return Metadata{}, fmt.Errorf("replace fragment data: %w", err)
	}
	return meta, nil
}

// Delete removes metadata and data together.
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	return s.store.Delete(ctx, ownerID, id)
}

// List returns metadata for the owner's fragments; an owner with no
// fragments gets an empty slice.
func (s *Service) List(ctx context.Context, ownerID string) ([]Metadata, error) {
	fragments, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if fragments == nil {
		fragments = []Metadata{}
	}
	return fragments, nil
}
