package certedit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// BlobHandle is a revocable reference to an uploaded image.
type BlobHandle string

// BlobStore owns uploaded images. A handle stays readable until it is revoked.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (BlobHandle, error)
	Open(ctx context.Context, h BlobHandle) (io.ReadCloser, error)
	Revoke(ctx context.Context, h BlobHandle) error
}

// MemoryBlobStore keeps blobs in process memory.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[BlobHandle][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[BlobHandle][]byte)}
}

func (s *MemoryBlobStore) Put(_ context.Context, r io.Reader, _ int64, _ string) (BlobHandle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read blob: %w", err)
	}

	h := BlobHandle("mem:" + uuid.NewString())

	s.mu.Lock()
	s.blobs[h] = data
	s.mu.Unlock()

	return h, nil
}

func (s *MemoryBlobStore) Open(_ context.Context, h BlobHandle) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.blobs[h]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, h)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryBlobStore) Revoke(_ context.Context, h BlobHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[h]; !ok {
		return fmt.Errorf("%w: %s", ErrBlobNotFound, h)
	}
	delete(s.blobs, h)
	return nil
}

// Len reports how many handles are still live.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
