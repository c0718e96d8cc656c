package pagecache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMemoryCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(0)

	if _, ok, _ := cache.Get(ctx, ListKey); ok {
		t.Fatalf("expected empty cache")
	}

	if err := cache.Set(ctx, ListKey, []byte("list")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Set(ctx, DetailKey(3), []byte("three")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Set(ctx, DetailKey(7), []byte("seven")); err != nil {
		t.Fatalf("set: %v", err)
	}

	page, ok, err := cache.Get(ctx, DetailKey(3))
	if err != nil || !ok || string(page) != "three" {
		t.Fatalf("unexpected get result %q %v %v", page, ok, err)
	}

	if err := cache.Invalidate(ctx, ListKey, DetailKey(3)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, ListKey); ok {
		t.Fatalf("list page should be gone")
	}
	if _, ok, _ := cache.Get(ctx, DetailKey(7)); !ok {
		t.Fatalf("unrelated detail page should survive")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached page, got %d", cache.Len())
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, ListKey, []byte("list")); err != nil {
		t.Fatalf("set: %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, ok, _ := cache.Get(ctx, ListKey); !ok {
		t.Fatalf("expected page before expiry")
	}
	now = now.Add(31 * time.Second)
	if _, ok, _ := cache.Get(ctx, ListKey); ok {
		t.Fatalf("expected page to expire")
	}
}

func TestMemoryCacheCopiesPages(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(0)
	page := []byte("original")
	cache.Set(ctx, ListKey, page)
	page[0] = 'X'

	got, _, _ := cache.Get(ctx, ListKey)
	if string(got) != "original" {
		t.Fatalf("cache must not alias caller buffers, got %q", got)
	}
}

func TestDetailKey(t *testing.T) {
	if DetailKey(42) != "/Blog/42" {
		t.Fatalf("unexpected key %q", DetailKey(42))
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("BLOGDESK_TEST_REDIS")
	if addr == "" {
		t.Skip("BLOGDESK_TEST_REDIS not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	cache := NewRedis(client, time.Minute)
	key := DetailKey(uint(time.Now().UnixNano() % 100000))
	if err := cache.Set(ctx, key, []byte("page")); err != nil {
		t.Fatalf("set: %v", err)
	}
	page, ok, err := cache.Get(ctx, key)
	if err != nil || !ok || string(page) != "page" {
		t.Fatalf("unexpected get result %q %v %v", page, ok, err)
	}
	if err := cache.Invalidate(ctx, key); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, err := cache.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected miss after invalidate, got ok=%v err=%v", ok, err)
	}
}
