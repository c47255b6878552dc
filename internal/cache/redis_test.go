package cache

import (
	"context"
	"testing"
	"time"
)

func TestGenerateKey(t *testing.T) {
	c := NewRedisCache("localhost:0", "catalog")
	if got := c.GenerateKey("menu", "r1"); got != "catalog:menu:r1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNopCacheAlwaysMisses(t *testing.T) {
	c := NewNop("catalog")
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "" {
		t.Fatalf("expected miss, got %q err %v", got, err)
	}
	if err := Ping(ctx, c); err != nil {
		t.Fatalf("nop ping: %v", err)
	}
}
