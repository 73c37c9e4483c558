package kpi

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheBumpInvalidatesKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "kpi", "overview", "scope")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	after, err := cache.BuildKey(ctx, "kpi", "overview", "scope")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if before == after {
		t.Fatalf("bump must change the key, got %q twice", before)
	}
}

func TestCacheFetchJSONLoadsOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (interface{}, error) {
		loads++
		return []string{"a", "b"}, nil
	}

	key, err := cache.BuildKey(ctx, "kpi", "test")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	for i := 0; i < 3; i++ {
		var out []string
		if err := cache.FetchJSON(ctx, key, &out, loader); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(out) != 2 {
			t.Fatalf("fetch %d: out = %v", i, out)
		}
	}
	if loads != 1 {
		t.Fatalf("loader ran %d times, want 1", loads)
	}
}

func TestNilCachePassesThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "kpi", "test")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	var out []string
	err = cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return []string{"x"}, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 1 || out[0] != "x" {
		t.Fatalf("out = %v", out)
	}
}
