package kv_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/edgekv/cfkv_sdk_go/pkg/kv"
)

func TestNewFromEnvHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acc/storage/kv/namespaces/ns/values/greeting" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	t.Setenv("CFKV_RUNTIME_MODE", "")
	t.Setenv("CF_ACCOUNT_ID", "acc")
	t.Setenv("CF_KV_NAMESPACE_ID", "ns")
	t.Setenv("CF_API_TOKEN", "tok")
	t.Setenv("CFKV_API_BASE_URL", srv.URL)

	client, mode, err := kv.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "http" {
		t.Fatalf("expected http mode, got %q", mode)
	}

	item, err := client.Get(context.Background(), "greeting")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item == nil || item.Value != "hello" {
		t.Fatalf("unexpected item: %#v", item)
	}
}

func TestNewFromEnvAutoFallsBackToMock(t *testing.T) {
	t.Setenv("CFKV_RUNTIME_MODE", "")
	t.Setenv("CF_ACCOUNT_ID", "")
	t.Setenv("CF_KV_NAMESPACE_ID", "")
	t.Setenv("CF_API_TOKEN", "")
	t.Setenv("CFKV_MOCK_SEED", "")

	client, mode, err := kv.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "mock" {
		t.Fatalf("expected mock mode, got %q", mode)
	}

	ctx := context.Background()
	if err := client.Put(ctx, "k", "v", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	item, err := client.Get(ctx, "k")
	if err != nil || item == nil || item.Value != "v" {
		t.Fatalf("round trip failed: item=%#v err=%v", item, err)
	}
}

func TestNewFromEnvMockSeed(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"key":"config","value":{"enabled":true}},{"key":"motd","value":"welcome","ttl_seconds":300}]`
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	t.Setenv("CFKV_RUNTIME_MODE", "mock")
	t.Setenv("CFKV_MOCK_SEED", seedPath)

	client, mode, err := kv.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if mode != "mock" {
		t.Fatalf("expected mock mode, got %q", mode)
	}

	ctx := context.Background()
	item, err := client.Get(ctx, "config")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	obj, ok := item.Value.(map[string]any)
	if !ok || obj["enabled"] != true {
		t.Fatalf("unexpected seeded value: %#v", item.Value)
	}

	res, err := client.ListKeys(ctx, kv.ListOptions{})
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(res.Keys) != 2 || !res.ListComplete {
		t.Fatalf("unexpected listing: %#v", res)
	}
}

func TestNewFromEnvHTTPRequiresCredentials(t *testing.T) {
	t.Setenv("CFKV_RUNTIME_MODE", "http")
	t.Setenv("CF_ACCOUNT_ID", "acc")
	t.Setenv("CF_KV_NAMESPACE_ID", "")
	t.Setenv("CF_API_TOKEN", "tok")

	if _, _, err := kv.NewFromEnv(); err == nil {
		t.Fatalf("expected error for missing namespace ID")
	}
}

func TestNewFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("CFKV_RUNTIME_MODE", "carrier-pigeon")

	if _, _, err := kv.NewFromEnv(); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func TestDebugEnvEnablesErrorDisplay(t *testing.T) {
	t.Setenv("CFKV_DEBUG", "1")
	t.Setenv("CFKV_RUNTIME_MODE", "mock")
	t.Setenv("CFKV_MOCK_SEED", "")

	client, _, err := kv.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if prev := client.ShowErrors(false); !prev {
		t.Fatalf("expected error display enabled under CFKV_DEBUG")
	}
}
