// Package store holds the record store clients for the Blogs collection.
package store

import (
	"context"
	"errors"

	"github.com/blogdesk/internal/db"
)

// ErrNotFound is returned when no post matches the requested id.
var ErrNotFound = errors.New("post not found")

// PostStore performs reads and writes against the Blogs collection.
type PostStore interface {
	// List returns every post in store order (ascending id).
	List(ctx context.Context) ([]db.Post, error)
	// Get returns a single post by id.
	Get(ctx context.Context, id uint) (*db.Post, error)
	// Insert persists a new post and fills in its ID and CreatedAt.
	Insert(ctx context.Context, post *db.Post) error
	// Update rewrites title, content, image_url and edited of an existing post.
	Update(ctx context.Context, post *db.Post) error
	// Delete removes a post by id.
	Delete(ctx context.Context, id uint) error
	// ClearEdited resets the edited flag for exactly the given ids in one statement.
	ClearEdited(ctx context.Context, ids []uint) (int64, error)
}
