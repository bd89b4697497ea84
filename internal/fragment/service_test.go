package fragment

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store used by service and handler tests. It
// mirrors the contract: records keyed by id, ownership checked on every
// lookup, metadata and data held together.
type fakeStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]fakeRecord
}

type fakeRecord struct {
	meta Metadata
	data []byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]fakeRecord)}
}

func (f *fakeStore) Save(ctx context.Context, meta Metadata, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[meta.ID] = fakeRecord{meta: meta, data: append([]byte(nil), data...)}
	return nil
}

func (f *fakeStore) Replace(ctx context.Context, meta Metadata, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.records[meta.ID]
	if !ok || current.meta.OwnerID != meta.OwnerID {
		return ErrNotFound
	}
	f.records[meta.ID] = fakeRecord{meta: meta, data: append([]byte(nil), data...)}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok || record.meta.OwnerID != ownerID {
		return Metadata{}, ErrNotFound
	}
	return record.meta, nil
}

func (f *fakeStore) GetData(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok || record.meta.OwnerID != ownerID {
		return Metadata{}, nil, ErrNotFound
	}
	return record.meta, append([]byte(nil), record.data...), nil
}

func (f *fakeStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok || record.meta.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) List(ctx context.Context, ownerID string) ([]Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Metadata
	for _, record := range f.records {
		if record.meta.OwnerID == ownerID {
			out = append(out, record.meta)
		}
	}
	return out, nil
}

const testMaxBytes = 1 << 20

func TestCreateComputesMetadata(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)

	payload := []byte("hello fragment")
	meta, err := service.Create(context.Background(), "owner-a", "text/plain; charset=utf-8", payload)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if meta.OwnerID != "owner-a" {
		t.Fatalf("unexpected owner: %s", meta.OwnerID)
	}
	if meta.ContentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected stored type: %s", meta.ContentType)
	}
	if meta.SizeBytes != int64(len(payload)) {
		t.Fatalf("size %d does not match payload length %d", meta.SizeBytes, len(payload))
	}
	if !meta.CreatedAt.Equal(meta.UpdatedAt) {
		t.Fatalf("created and updated must match at birth")
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.records))
	}
}

func TestCreateRejectsUnsupportedType(t *testing.T) {
	service := NewService(newFakeStore(), testMaxBytes)

	_, err := service.Create(context.Background(), "owner-a", "application/pdf", []byte("%PDF-1.4"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestCreateRejectsMismatchedPayload(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)

	_, err := service.Create(context.Background(), "owner-a", "image/png", []byte(`{"a":1}`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("rejected payload must not be persisted")
	}
}

func TestCreateRejectsOversizePayload(t *testing.T) {
	service := NewService(newFakeStore(), 8)

	_, err := service.Create(context.Background(), "owner-a", "text/plain", []byte("more than eight bytes"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected too large error, got %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "text/plain", []byte("private"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := service.Get(ctx, "owner-b", meta.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner read must be not found, got %v", err)
	}
	if _, _, err := service.GetData(ctx, "owner-b", meta.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner data read must be not found, got %v", err)
	}
	if _, err := service.Update(ctx, "owner-b", meta.ID, "text/plain", []byte("hijack")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner update must be not found, got %v", err)
	}
	if err := service.Delete(ctx, "owner-b", meta.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner delete must be not found, got %v", err)
	}

	// The fragment is untouched for its real owner.
	data, contentType, err := service.GetData(ctx, "owner-a", meta.ID, "")
	if err != nil {
		t.Fatalf("owner read failed after cross-owner attempts: %v", err)
	}
	if string(data) != "private" || !strings.HasPrefix(contentType, "text/plain") {
		t.Fatalf("fragment changed: %q %s", data, contentType)
	}
}

func TestUpdateKeepsTypeImmutable(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "text/plain", []byte("original"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = service.Update(ctx, "owner-a", meta.ID, "text/markdown", []byte("# changed"))
	if !errors.Is(err, ErrTypeImmutable) {
		t.Fatalf("expected immutable type error, got %v", err)
	}

	_, data, err := store.GetData(ctx, "owner-a", meta.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, []byte("original")) {
		t.Fatalf("rejected update must not touch stored data, got %q", data)
	}
}

func TestUpdateReplacesDataAndRefreshesTimestamps(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)
	service.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "application/json", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	service.nowFunc = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	updated, err := service.Update(ctx, "owner-a", meta.ID, "application/json", []byte(`{"v":2,"w":3}`))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.ID != meta.ID || updated.OwnerID != meta.OwnerID || updated.ContentType != meta.ContentType {
		t.Fatalf("identity fields changed on update")
	}
	if !updated.CreatedAt.Equal(meta.CreatedAt) {
		t.Fatalf("created timestamp changed on update")
	}
	if !updated.UpdatedAt.After(meta.UpdatedAt) {
		t.Fatalf("updated timestamp not refreshed")
	}
	if updated.SizeBytes != int64(len(`{"v":2,"w":3}`)) {
		t.Fatalf("size not recomputed, got %d", updated.SizeBytes)
	}
}

func TestGetDataConvertsByExtension(t *testing.T) {
	service := NewService(newFakeStore(), testMaxBytes)
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "text/markdown", []byte("# Markdown Test"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	data, contentType, err := service.GetData(ctx, "owner-a", meta.ID, ".html")
	if err != nil {
		t.Fatalf("GetData returned error: %v", err)
	}
	if contentType != TypeTextHTML {
		t.Fatalf("expected text/html content type, got %s", contentType)
	}
	if !strings.Contains(string(data), "<h1>Markdown Test</h1>") {
		t.Fatalf("expected rendered heading, got %q", data)
	}
}

func TestGetDataRejectsUnknownExtension(t *testing.T) {
	service := NewService(newFakeStore(), testMaxBytes)
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "text/plain", []byte("plain"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, _, err = service.GetData(ctx, "owner-a", meta.ID, ".docx")
	if !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("expected unsupported conversion error, got %v", err)
	}
}

func TestConcurrentWritesNeverExposeSizeMismatch(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, testMaxBytes)
	ctx := context.Background()

	meta, err := service.Create(ctx, "owner-a", "text/plain", []byte("seed"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		payload := bytes.Repeat([]byte("x"), i+1)
		wg.Add(1)
		go func(payload []byte) {
			defer wg.Done()
			if _, err := service.Update(ctx, "owner-a", meta.ID, "text/plain", payload); err != nil {
				errs <- err
			}
		}(payload)

		wg.Add(1)
		go func() {
			defer wg.Done()
			readMeta, data, err := store.GetData(ctx, "owner-a", meta.ID)
			if err != nil {
				errs <- err
				return
			}
			if readMeta.SizeBytes != int64(len(data)) {
				errs <- errors.New("observed metadata size inconsistent with data length")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access: %v", err)
	}
}

func TestListReturnsEmptySliceForNewOwner(t *testing.T) {
	service := NewService(newFakeStore(), testMaxBytes)

	fragments, err := service.List(context.Background(), "owner-without-fragments")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if fragments == nil || len(fragments) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", fragments)
	}
}
