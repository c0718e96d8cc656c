package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/store"
	"github.com/rs/zerolog/log"
)

// ErrNoEditedPosts is returned when a revalidation names no posts.
var ErrNoEditedPosts = errors.New("no edited blogs to revalidate")

// RevalidationResult describes a finished revalidation.
type RevalidationResult struct {
	IDs     []uint
	Cleared int64
	// CacheErr is set when the flags were cleared but the cached pages could not be dropped.
	CacheErr error
}

// Revalidator clears dirty flags and drops the cached public pages.
type Revalidator struct {
	posts store.PostStore
	pages pagecache.Cache
}

// NewRevalidator creates a Revalidator instance.
func NewRevalidator(posts store.PostStore, pages pagecache.Cache) *Revalidator {
	if pages == nil {
		pages = pagecache.Nop{}
	}
	return &Revalidator{posts: posts, pages: pages}
}

// Revalidate resets edited for exactly ids in one batched update, then drops the
// listing page and the detail page of each id. The two steps are not transactional.
func (r *Revalidator) Revalidate(ctx context.Context, ids []uint) (RevalidationResult, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return RevalidationResult{}, ErrNoEditedPosts
	}

	cleared, err := r.posts.ClearEdited(ctx, unique)
	if err != nil {
		return RevalidationResult{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	result := RevalidationResult{IDs: unique, Cleared: cleared}

	keys := make([]string, 0, len(unique)+1)
	keys = append(keys, pagecache.ListKey)
	for _, id := range unique {
		keys = append(keys, pagecache.DetailKey(id))
	}
	if err := r.pages.Invalidate(ctx, keys...); err != nil {
		result.CacheErr = err
		log.Error().Err(err).Uints("ids", unique).Msg("edited flags cleared but cached pages were not dropped")
	}

	log.Info().Uints("ids", unique).Int64("cleared", cleared).Msg("revalidated posts")
	return result, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
