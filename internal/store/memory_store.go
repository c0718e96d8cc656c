package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blogdesk/internal/db"
)

// MemoryStore keeps posts in a map. It backs tests and local experiments.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	posts  map[uint]db.Post

	// Err, when set, is returned by every call.
	Err error
	// ClearCalls counts batched ClearEdited statements.
	ClearCalls int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, posts: map[uint]db.Post{}}
}

// SetErr makes every subsequent call fail with err (nil restores normal behaviour).
func (s *MemoryStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Seed stores posts as-is, keeping their ids.
func (s *MemoryStore) Seed(posts ...db.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		s.posts[p.ID] = clonePost(p)
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	posts := make([]db.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uint) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := clonePost(p)
	return &found, nil
}

func (s *MemoryStore) Insert(ctx context.Context, post *db.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	post.ID = s.nextID
	s.nextID++
	post.CreatedAt = time.Now().UTC()
	s.posts[post.ID] = clonePost(*post)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, post *db.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.ImageURL = post.ImageURL
	existing.Edited = post.Edited
	s.posts[post.ID] = clonePost(existing)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) ClearEdited(ctx context.Context, ids []uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.ClearCalls++
	var affected int64
	for _, id := range ids {
		p, ok := s.posts[id]
		if !ok {
			continue
		}
		p.Edited = false
		s.posts[id] = p
		affected++
	}
	return affected, nil
}

func clonePost(p db.Post) db.Post {
	if p.ImageURL != nil {
		url := *p.ImageURL
		p.ImageURL = &url
	}
	return p
}
