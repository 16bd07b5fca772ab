// Package devseed loads JSON seed files used to preload the in-memory KV
// mock and the sandbox server with initial data.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
)

// KVSeedEntry is one preloaded key. Value is kept as raw JSON so seeds can
// hold objects, arrays or scalars; a JSON string seed is stored with its
// quotes, matching how a JSON writer would have stored it.
type KVSeedEntry struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	TTLSeconds *int            `json:"ttl_seconds,omitempty"`
}

// LoadKVSeed reads a seed file containing a JSON array of entries.
func LoadKVSeed(path string) ([]KVSeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	var entries []KVSeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: parse %s: %w", path, err)
	}
	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("devseed: entry %d missing key", i)
		}
	}
	return entries, nil
}
