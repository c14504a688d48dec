package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nexus-dash/apiserver/config"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// Key prefixes used by the dashboard.
const (
	AvatarPrefix   = "avatars/"
	SnapshotPrefix = "directory/snapshots/"
)

// ChecksumMetadata is the metadata key holding the hex SHA-256 of an object
// written through PutBytes.
const ChecksumMetadata = "sha256"

// PutOptions describe how an object is stored.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open connects the backend selected by cfg.Backend and makes sure its
// bucket exists. It returns a nil Storage for the "none" backend.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}
	return s, nil
}

// PutBytes uploads data under key, tagging it with its checksum and the
// cache policy of its prefix.
func (s *Storage) PutBytes(ctx context.Context, key string, data []byte, contentType string) error {
	sum := sha256.Sum256(data)
	opts := PutOptions{
		ContentType:  contentType,
		CacheControl: CacheControl(key),
		Metadata:     map[string]string{ChecksumMetadata: hex.EncodeToString(sum[:])},
	}
	return s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), opts)
}

// CacheControl returns the Cache-Control policy for objects under key.
// Avatars are replaced in place so clients revalidate them; snapshots are
// written once and never change.
func CacheControl(key string) string {
	switch {
	case strings.HasPrefix(key, AvatarPrefix):
		return "private, no-cache"
	case strings.HasPrefix(key, SnapshotPrefix):
		return "private, max-age=31536000, immutable"
	default:
		return ""
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, PutOptions{ContentType: contentType, CacheControl: CacheControl(key)})
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
