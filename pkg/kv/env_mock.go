package kv

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edgekv/cfkv_sdk_go/internal/devseed"
)

// mockStore is the in-memory Backend used by NewFromEnv in mock mode. The
// richer standalone mock lives in pkg/kv/mock; this one exists so mock mode
// needs no extra imports and mirrors upstream semantics closely enough for
// local development.
type mockStore struct {
	mu    sync.RWMutex
	items map[string]*mockEntry
}

type mockEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e *mockEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[string]*mockEntry)}
}

func (s *mockStore) seed(entries []devseed.KVSeedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("mock kv: seed entry missing key")
		}
		entry := &mockEntry{data: append([]byte(nil), e.Value...)}
		if e.TTLSeconds != nil && *e.TTLSeconds > 0 {
			entry.expiresAt = now.Add(time.Duration(*e.TTLSeconds) * time.Second)
		}
		s.items[e.Key] = entry
	}
	return nil
}

func (s *mockStore) Get(ctx context.Context, key string) (*GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[key]
	if !ok || entry.expired(time.Now().UTC()) {
		return &GetResult{}, nil
	}
	return &GetResult{Raw: append([]byte(nil), entry.data...), Found: true}, nil
}

func (s *mockStore) Put(ctx context.Context, key string, body []byte, contentType string, opts *PutOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &mockEntry{data: append([]byte(nil), body...)}
	if opts != nil && opts.ExpirationTTL > 0 {
		entry.expiresAt = time.Now().UTC().Add(time.Duration(opts.ExpirationTTL) * time.Second)
	}
	s.items[key] = entry
	return 0, nil
}

func (s *mockStore) Delete(ctx context.Context, key string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok || entry.expired(time.Now().UTC()) {
		return 0, &APIError{StatusCode: http.StatusNotFound, Message: "KV API Error: key not found"}
	}
	delete(s.items, key)
	return 0, nil
}

func (s *mockStore) ListKeys(ctx context.Context, opts ListOptions) (*ListResult, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	names := make([]string, 0, len(s.items))
	for name, entry := range s.items {
		if entry.expired(now) {
			continue
		}
		if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	start := 0
	if opts.Cursor != "" {
		idx := sort.SearchStrings(names, opts.Cursor)
		for idx < len(names) && names[idx] <= opts.Cursor {
			idx++
		}
		start = idx
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}
	end := len(names)
	if start+limit < end {
		end = start + limit
	}

	result := &ListResult{Keys: make([]KeyInfo, 0, end-start)}
	for _, name := range names[start:end] {
		info := KeyInfo{Name: name}
		if entry := s.items[name]; !entry.expiresAt.IsZero() {
			info.Expiration = entry.expiresAt.Unix()
		}
		result.Keys = append(result.Keys, info)
	}
	if end < len(names) {
		result.Cursor = names[end-1]
	} else {
		result.ListComplete = true
	}
	return result, 0, nil
}
