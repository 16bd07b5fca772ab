package kv

import (
	"fmt"
	"os"
	"strings"

	"github.com/edgekv/cfkv_sdk_go/internal/devseed"
)

const (
	envMode        = "CFKV_RUNTIME_MODE"
	envAccountID   = "CF_ACCOUNT_ID"
	envNamespaceID = "CF_KV_NAMESPACE_ID"
	envAPIToken    = "CF_API_TOKEN"
	envBaseURL     = "CFKV_API_BASE_URL"
	envMockSeed    = "CFKV_MOCK_SEED"
	envDebug       = "CFKV_DEBUG"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client from environment variables and returns the
// resolved mode ("http" or "mock"). In the default auto mode, HTTP is chosen
// when CF_ACCOUNT_ID, CF_KV_NAMESPACE_ID and CF_API_TOKEN are all set, and an
// in-memory mock otherwise. CFKV_API_BASE_URL redirects HTTP mode at a local
// sandbox; CFKV_MOCK_SEED preloads the mock from a seed file.
func NewFromEnv() (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	accountID := strings.TrimSpace(os.Getenv(envAccountID))
	namespaceID := strings.TrimSpace(os.Getenv(envNamespaceID))
	apiToken := strings.TrimSpace(os.Getenv(envAPIToken))

	switch mode {
	case "", modeAuto:
		if accountID != "" && namespaceID != "" && apiToken != "" {
			return newEnvHTTPClient(accountID, namespaceID, apiToken)
		}
		return newEnvMockClient()
	case modeHTTP:
		if accountID == "" || namespaceID == "" || apiToken == "" {
			return nil, "", fmt.Errorf("kv: HTTP mode requires %s, %s and %s", envAccountID, envNamespaceID, envAPIToken)
		}
		return newEnvHTTPClient(accountID, namespaceID, apiToken)
	case modeMock:
		return newEnvMockClient()
	default:
		return nil, "", fmt.Errorf("kv: unsupported %s value %q", envMode, mode)
	}
}

func newEnvHTTPClient(accountID, namespaceID, apiToken string) (*Client, string, error) {
	var opts []Option
	if base := strings.TrimSpace(os.Getenv(envBaseURL)); base != "" {
		opts = append(opts, WithAPIBaseURL(base))
	}
	client, err := New(accountID, namespaceID, apiToken, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("kv: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newEnvMockClient() (*Client, string, error) {
	store := newMockStore()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.LoadKVSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("kv: load mock seed: %w", err)
		}
		if err := store.seed(entries); err != nil {
			return nil, "", fmt.Errorf("kv: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(store), modeMock, nil
}
