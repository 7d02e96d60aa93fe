package memory

import (
	"context"
	"sync"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// BlobStore implements ports.BlobStore in memory.
type BlobStore struct {
	BaseURL string

	mu    sync.Mutex
	blobs map[string][]byte
}

// NewBlobStore creates an empty BlobStore whose URLs start with baseURL.
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{BaseURL: baseURL, blobs: make(map[string][]byte)}
}

func (s *BlobStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte(nil), data...)
	return s.BaseURL + "/" + name, nil
}

func (s *BlobStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.blobs, name)
	return nil
}

func (s *BlobStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[name]
	return ok, nil
}

// Names lists stored blob names.
func (s *BlobStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for n := range s.blobs {
		out = append(out, n)
	}
	return out
}
