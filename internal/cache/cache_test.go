package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if v, _ := c.Get(ctx, "missing"); v != "" {
		t.Errorf("Expected miss, got %q", v)
	}

	c.Set(ctx, KeyArticles, `[{"id":"a"}]`, time.Minute)
	c.Set(ctx, KeyRSS, "<rss/>", time.Minute)

	if v, _ := c.Get(ctx, KeyArticles); v != `[{"id":"a"}]` {
		t.Errorf("unexpected value %q", v)
	}

	c.Delete(ctx, KeyArticles, KeyRSS)
	if v, _ := c.Get(ctx, KeyArticles); v != "" {
		t.Error("expected articles to be deleted")
	}
	if v, _ := c.Get(ctx, KeyRSS); v != "" {
		t.Error("expected rss to be deleted")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Minute)
	c.Set(ctx, "forever", "v", 0)

	now = now.Add(2 * time.Minute)

	if v, _ := c.Get(ctx, "k"); v != "" {
		t.Error("expected entry to expire")
	}
	if v, _ := c.Get(ctx, "forever"); v != "v" {
		t.Error("entry without ttl should not expire")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	type view struct {
		IDs []string `json:"ids"`
	}

	if err := SetJSON(ctx, c, "view", view{IDs: []string{"a", "b"}}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var got view
	ok, err := GetJSON(ctx, c, "view", &got)
	if err != nil || !ok {
		t.Fatalf("GetJSON ok=%v err=%v", ok, err)
	}
	if len(got.IDs) != 2 {
		t.Errorf("unexpected view %+v", got)
	}

	c.Set(ctx, "broken", "{", time.Minute)
	ok, err = GetJSON(ctx, c, "broken", &got)
	if ok || err != nil {
		t.Errorf("undecodable entry should be a miss, ok=%v err=%v", ok, err)
	}
}

func TestNewWithFallback(t *testing.T) {
	ctx := context.Background()

	if _, ok := NewWithFallback(ctx, nil, zerolog.Nop()).(*MemoryCache); !ok {
		t.Error("nil client should fall back to memory cache")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	if _, ok := NewWithFallback(ctx, client, zerolog.Nop()).(*MemoryCache); !ok {
		t.Error("unreachable redis should fall back to memory cache")
	}
}
