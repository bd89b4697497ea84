package fragment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	metaKeyOwner   = "Fragment-Owner"
	metaKeyCreated = "Fragment-Created"
	metaKeyUpdated = "Fragment-Updated"
)

// MinIOStore keeps each fragment as a single object named ownerID/id, with
// the fragment metadata attached as object user metadata. One PutObject is
// the atomic unit, so metadata and data can never diverge.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore builds a MinIO-backed fragment store.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (s *MinIOStore) Save(ctx context.Context, meta Metadata, data []byte) error {
	return s.put(ctx, meta, data)
}

func (s *MinIOStore) Replace(ctx context.Context, meta Metadata, data []byte) error {
	// Existence check first: overwriting is how S3 "updates", so a blind
	// put would silently create a fragment the service never birthed.
	if _, err := s.Get(ctx, meta.OwnerID, meta.ID); err != nil {
		return err
	}
	return s.put(ctx, meta, data)
}

func (s *MinIOStore) put(ctx context.Context, meta Metadata, data []byte) error {
	opts := minio.PutObjectOptions{
		ContentType: meta.ContentType,
		UserMetadata: map[string]string{
			metaKeyOwner:   meta.OwnerID,
			metaKeyCreated: strconv.FormatInt(meta.CreatedAt.UnixMilli(), 10),
			metaKeyUpdated: strconv.FormatInt(meta.UpdatedAt.UnixMilli(), 10),
		},
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName(meta.OwnerID, meta.ID),
		bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("put fragment object: %w", err)
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectName(ownerID, id), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, fmt.Errorf("stat fragment object: %w", err)
	}
	return metadataFromObject(ownerID, id, info), nil
}

func (s *MinIOStore) GetData(ctx context.Context, ownerID string, id uuid.UUID) (Metadata, []byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName(ownerID, id), minio.GetObjectOptions{})
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("get fragment object: %w", err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		if isNoSuchKey(err) {
			return Metadata{}, nil, ErrNotFound
		}
		return Metadata{}, nil, fmt.Errorf("stat fragment object: %w", err)
	}

	data, err := io.ReadAll(object)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("read fragment object: %w", err)
	}
	return metadataFromObject(ownerID, id, info), data, nil
}

func (s *MinIOStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	// RemoveObject succeeds on absent keys, so existence decides NotFound.
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectName(ownerID, id), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove fragment object: %w", err)
	}
	return nil
}

func (s *MinIOStore) List(ctx context.Context, ownerID string) ([]Metadata, error) {
	prefix := ownerID + "/"
	listing := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var fragments []Metadata
	for object := range listing {
		if object.Err != nil {
			return nil, fmt.Errorf("list fragment objects: %w", object.Err)
		}

		id, err := uuid.Parse(strings.TrimPrefix(object.Key, prefix))
		if err != nil {
			// Not a fragment object; ignore foreign keys in the bucket.
			continue
		}

		// Listings do not carry user metadata, so stat each object for
		// the full record. Owner listings are small.
		meta, err := s.Get(ctx, ownerID, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		fragments = append(fragments, meta)
	}
	return fragments, nil
}

func objectName(ownerID string, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", ownerID, id.String())
}

func metadataFromObject(ownerID string, id uuid.UUID, info minio.ObjectInfo) Metadata {
	meta := Metadata{
		ID:          id,
		OwnerID:     ownerID,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		CreatedAt:   info.LastModified,
		UpdatedAt:   info.LastModified,
	}
	if created, ok := parseMilli(info.UserMetadata[metaKeyCreated]); ok {
		meta.CreatedAt = created
	}
	if updated, ok := parseMilli(info.UserMetadata[metaKeyUpdated]); ok {
		meta.UpdatedAt = updated
	}
	return meta
}

func parseMilli(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
