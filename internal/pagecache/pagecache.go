// Package pagecache stores rendered public pages until they are revalidated.
package pagecache

import (
	"context"
	"fmt"
)

// Cache maps a request path to a rendered page.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, page []byte) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ListKey is the cache key of the public listing page.
const ListKey = "/Blog"

// DetailKey is the cache key of a public post page.
func DetailKey(id uint) string {
	return fmt.Sprintf("/Blog/%d", id)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) Invalidate(context.Context, ...string) error { return nil }
