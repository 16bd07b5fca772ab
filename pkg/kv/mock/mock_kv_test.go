package mock_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/edgekv/cfkv_sdk_go/internal/devseed"
	"github.com/edgekv/cfkv_sdk_go/pkg/kv"
	"github.com/edgekv/cfkv_sdk_go/pkg/kv/mock"
)

func TestMockRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := kv.NewWithBackend(mock.New())

	if err := client.Put(ctx, "jobs:1", map[string]any{"count": 1}, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	item, err := client.Get(ctx, "jobs:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item == nil {
		t.Fatalf("expected item")
	}
	obj, ok := item.Value.(map[string]any)
	if !ok || obj["count"] != float64(1) {
		t.Fatalf("unexpected value: %#v", item.Value)
	}

	missing, err := client.Get(ctx, "jobs:2")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing key, got %#v", missing)
	}

	if err := client.Delete(ctx, "jobs:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var apiErr *kv.APIError
	if err := client.Delete(ctx, "jobs:1"); !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Fatalf("expected 404 APIError for second delete, got %v", err)
	}
}

func TestMockTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := mock.New(mock.WithClock(func() time.Time { return now }))
	client := kv.NewWithBackend(m)

	if err := client.Put(ctx, "session", "abc", &kv.PutOptions{ExpirationTTL: 60}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	item, err := client.Get(ctx, "session")
	if err != nil || item == nil {
		t.Fatalf("Get before expiry: item=%v err=%v", item, err)
	}

	now = now.Add(61 * time.Second)
	item, err = client.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if item != nil {
		t.Fatalf("expected expired key to be absent, got %#v", item)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no live keys, got %d", m.Len())
	}
}

func TestMockListPagination(t *testing.T) {
	ctx := context.Background()
	client := kv.NewWithBackend(mock.New())

	for _, key := range []string{"jobs:1", "jobs:2", "jobs:3", "other:1"} {
		if err := client.Put(ctx, key, "x", nil); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	page1, err := client.ListKeys(ctx, kv.ListOptions{Prefix: "jobs:", Limit: 2})
	if err != nil {
		t.Fatalf("ListKeys page 1: %v", err)
	}
	if len(page1.Keys) != 2 || page1.ListComplete || page1.Cursor == "" {
		t.Fatalf("unexpected page 1: %#v", page1)
	}
	if page1.Keys[0].Name != "jobs:1" || page1.Keys[1].Name != "jobs:2" {
		t.Fatalf("unexpected page 1 keys: %#v", page1.Keys)
	}

	page2, err := client.ListKeys(ctx, kv.ListOptions{Prefix: "jobs:", Limit: 2, Cursor: page1.Cursor})
	if err != nil {
		t.Fatalf("ListKeys page 2: %v", err)
	}
	if len(page2.Keys) != 1 || !page2.ListComplete || page2.Keys[0].Name != "jobs:3" {
		t.Fatalf("unexpected page 2: %#v", page2)
	}

	var apiErr *kv.APIError
	if _, err := client.ListKeys(ctx, kv.ListOptions{Cursor: "%%%not-base64%%%"}); !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError for bad cursor, got %v", err)
	}
}

func TestMockSeed(t *testing.T) {
	m := mock.New()
	ttl := 300
	err := m.Seed([]devseed.KVSeedEntry{
		{Key: "config", Value: json.RawMessage(`{"enabled":true}`)},
		{Key: "token", Value: json.RawMessage(`"abc"`), TTLSeconds: &ttl},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	client := kv.NewWithBackend(m)
	cfg, err := kv.GetAs[map[string]bool](context.Background(), client, "config")
	if err != nil {
		t.Fatalf("GetAs: %v", err)
	}
	if cfg == nil || !(*cfg)["enabled"] {
		t.Fatalf("unexpected config: %#v", cfg)
	}

	if err := m.Seed([]devseed.KVSeedEntry{{Key: " "}}); err == nil {
		t.Fatalf("expected error for blank seed key")
	}
}
