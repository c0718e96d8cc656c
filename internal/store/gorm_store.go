package store

import (
	"context"
	"errors"

	"github.com/blogdesk/internal/db"
	"gorm.io/gorm"
)

// GormStore is the embedded sqlite record store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore instance.
func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

// List returns all posts ordered by id.
func (s *GormStore) List(ctx context.Context) ([]db.Post, error) {
	var posts []db.Post
	if err := s.db.WithContext(ctx).Order("id asc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Get fetches a post by id.
func (s *GormStore) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Insert creates the post row.
func (s *GormStore) Insert(ctx context.Context, post *db.Post) error {
	post.ID = 0
	return s.db.WithContext(ctx).Create(post).Error
}

// Update applies the mutable columns by id. Zero values are written too.
func (s *GormStore) Update(ctx context.Context, post *db.Post) error {
	result := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":     post.Title,
			"content":   post.Content,
			"image_url": post.ImageURL,
			"edited":    post.Edited,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post by id.
func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearEdited sets edited=false with a single "id IN ?" update.
func (s *GormStore) ClearEdited(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id IN ?", ids).
		Update("edited", false)
	return result.RowsAffected, result.Error
}
