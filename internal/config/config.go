// Package config loads the YAML profile used by the cfkv CLI: which account
// and namespace to talk to, and the token to authenticate with. Environment
// variables override file values so CI and local shells can share a profile.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes one namespace binding.
type Profile struct {
	AccountID   string `yaml:"account_id"`
	NamespaceID string `yaml:"namespace_id"`
	APIToken    string `yaml:"api_token"`
	// BaseURL overrides the Cloudflare API root, e.g. to point at a local
	// sandbox. Empty selects the production endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	Debug   bool   `yaml:"debug,omitempty"`
}

// Load reads and decodes a profile file. A missing path returns an empty
// profile so env-only setups work without a file on disk.
func Load(path string) (*Profile, error) {
	var p Profile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &p, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &p, nil
}

// ApplyEnv overlays environment variables onto the profile. File values lose
// to the environment, matching how the SDK's own NewFromEnv resolves things.
func (p *Profile) ApplyEnv() {
	if v := os.Getenv("CF_ACCOUNT_ID"); v != "" {
		p.AccountID = v
	}
	if v := os.Getenv("CF_KV_NAMESPACE_ID"); v != "" {
		p.NamespaceID = v
	}
	if v := os.Getenv("CF_API_TOKEN"); v != "" {
		p.APIToken = v
	}
	if v := os.Getenv("CFKV_API_BASE_URL"); v != "" {
		p.BaseURL = v
	}
}

// Validate reports the first missing required field.
func (p *Profile) Validate() error {
	if p.AccountID == "" {
		return fmt.Errorf("config: account_id is required (file or CF_ACCOUNT_ID)")
	}
	if p.NamespaceID == "" {
		return fmt.Errorf("config: namespace_id is required (file or CF_KV_NAMESPACE_ID)")
	}
	if p.APIToken == "" {
		return fmt.Errorf("config: api_token is required (file or CF_API_TOKEN)")
	}
	return nil
}
