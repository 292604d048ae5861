package storage

import (
	"context"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
)

var _ fiscal.ArtifactStore = (*MemoryArtifactStore)(nil)

// Object is one artifact held by MemoryArtifactStore
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryArtifactStore keeps artifacts in process memory. It backs local
// development when object storage is disabled.
type MemoryArtifactStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	BaseURL string
}

// NewMemoryArtifactStore creates an empty store
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{
		objects: make(map[string]Object),
		BaseURL: "memory://artifacts",
	}
}

// Put stores a copy of data under key
func (s *MemoryArtifactStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// Get returns the object stored under key
func (s *MemoryArtifactStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// DownloadURL returns a pseudo URL for key
func (s *MemoryArtifactStore) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", ErrKeyRequired
	}
	return s.BaseURL + "/" + key, nil
}
