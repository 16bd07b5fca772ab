// Package mock implements an in-memory Workers KV namespace for tests and
// local development. It satisfies kv.Backend, so a kv.Client can run against
// it unchanged via kv.NewWithBackend.
package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edgekv/cfkv_sdk_go/internal/devseed"
	"github.com/edgekv/cfkv_sdk_go/pkg/kv"
)

type entry struct {
	data        []byte
	contentType string
	expiresAt   time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Mock is an in-memory namespace with TTL expiry and cursor pagination.
type Mock struct {
	mu    sync.RWMutex
	items map[string]*entry
	now   func() time.Time
}

// Option configures the mock instance.
type Option func(*Mock)

// WithClock overrides the clock used for TTL bookkeeping (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Mock) {
		if fn != nil {
			m.now = fn
		}
	}
}

// New creates an empty mock namespace.
func New(opts ...Option) *Mock {
	m := &Mock{
		items: make(map[string]*entry),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) clock() time.Time {
	if m.now == nil {
		return time.Now().UTC()
	}
	return m.now()
}

// Seed loads initial items, typically decoded via devseed.LoadKVSeed.
func (m *Mock) Seed(entries []devseed.KVSeedEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("mock kv: seed entry missing key")
		}
		item := &entry{
			data:        append([]byte(nil), e.Value...),
			contentType: "application/json",
		}
		if e.TTLSeconds != nil && *e.TTLSeconds > 0 {
			item.expiresAt = now.Add(time.Duration(*e.TTLSeconds) * time.Second)
		}
		m.items[e.Key] = item
	}
	return nil
}

// Len reports the number of live (unexpired) keys.
func (m *Mock) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock()
	n := 0
	for _, item := range m.items {
		if !item.expired(now) {
			n++
		}
	}
	return n
}

// Get implements kv.Backend.
func (m *Mock) Get(ctx context.Context, key string) (*kv.GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[key]
	if !ok || item.expired(m.clock()) {
		return &kv.GetResult{Status: http.StatusNotFound}, nil
	}
	return &kv.GetResult{
		Raw:    append([]byte(nil), item.data...),
		Found:  true,
		Status: http.StatusOK,
	}, nil
}

// Put implements kv.Backend.
func (m *Mock) Put(ctx context.Context, key string, body []byte, contentType string, opts *kv.PutOptions) (int, error) {
	if strings.TrimSpace(key) == "" {
		return 0, fmt.Errorf("mock kv: key is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item := &entry{
		data:        append([]byte(nil), body...),
		contentType: contentType,
	}
	if opts != nil && opts.ExpirationTTL > 0 {
		item.expiresAt = m.clock().Add(time.Duration(opts.ExpirationTTL) * time.Second)
	}
	m.items[key] = item
	return http.StatusOK, nil
}

// Delete implements kv.Backend. Deleting a missing key fails with a 404
// APIError, matching the upstream surface.
func (m *Mock) Delete(ctx context.Context, key string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok || item.expired(m.clock()) {
		return http.StatusNotFound, &kv.APIError{
			StatusCode: http.StatusNotFound,
			Message:    "KV API Error: key not found",
		}
	}
	delete(m.items, key)
	return http.StatusOK, nil
}

// ListKeys implements kv.Backend. Cursors are opaque to callers; internally
// they encode the last key name of the previous page.
func (m *Mock) ListKeys(ctx context.Context, opts kv.ListOptions) (*kv.ListResult, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	after := ""
	if opts.Cursor != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(opts.Cursor)
		if err != nil {
			return nil, http.StatusBadRequest, &kv.APIError{
				StatusCode: http.StatusBadRequest,
				Message:    "KV API Error: invalid cursor",
			}
		}
		after = string(decoded)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock()
	names := make([]string, 0, len(m.items))
	for name, item := range m.items {
		if item.expired(now) {
			continue
		}
		if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	start := 0
	if after != "" {
		idx := sort.SearchStrings(names, after)
		for idx < len(names) && names[idx] <= after {
			idx++
		}
		start = idx
	}

	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	end := len(names)
	if start+limit < end {
		end = start + limit
	}

	result := &kv.ListResult{Keys: make([]kv.KeyInfo, 0, end-start)}
	for _, name := range names[start:end] {
		info := kv.KeyInfo{Name: name}
		if item := m.items[name]; !item.expiresAt.IsZero() {
			info.Expiration = item.expiresAt.Unix()
		}
		result.Keys = append(result.Keys, info)
	}
	if end < len(names) {
		result.Cursor = base64.RawURLEncoding.EncodeToString([]byte(names[end-1]))
	} else {
		result.ListComplete = true
	}
	return result, http.StatusOK, nil
}
