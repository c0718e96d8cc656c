package blob

import (
	"context"
	"io"
	"sync"
)

// MemoryStore records uploads in memory.
type MemoryStore struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte
	// Err, when set, fails every upload.
	Err error
}

// NewMemoryStore returns a MemoryStore publishing under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: baseURL, Objects: map[string][]byte{}}
}

func (s *MemoryStore) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	cleaned, err := validObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	if _, exists := s.Objects[cleaned]; exists {
		return "", ErrExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.Objects[cleaned] = data
	return s.BaseURL + "/" + cleaned, nil
}

// Count returns the number of stored objects.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}
