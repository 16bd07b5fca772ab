package kv

import "errors"

// Item represents a value read from the namespace.
//
// Value is the JSON-decoded body when the stored bytes parse as JSON, and the
// raw body as a string otherwise. The wire format does not distinguish JSON
// from plain text, so the inference is opportunistic and ambiguous: a stored
// literal `"123"` cannot be told apart from the JSON number 123. Raw always
// carries the exact bytes for callers that need to disambiguate.
type Item struct {
	Key   string
	Raw   []byte
	Value any
}

// PutOptions controls write semantics for Put operations.
type PutOptions struct {
	// ExpirationTTL is the number of seconds after which the key expires.
	// Zero or negative omits the parameter entirely. The upstream API
	// enforces a 60-second minimum; no client-side validation is applied.
	ExpirationTTL int
}

// ListOptions selects the page of keys returned by ListKeys.
type ListOptions struct {
	Prefix string
	// Limit is clamped into [1, 1000] when non-zero; zero lets the
	// upstream default apply.
	Limit  int
	Cursor string
}

// KeyInfo describes one key in a listing page.
type KeyInfo struct {
	Name       string `json:"name"`
	Expiration int64  `json:"expiration,omitempty"`
}

// ListResult is the result object of a keys listing.
type ListResult struct {
	Keys         []KeyInfo `json:"keys"`
	ListComplete bool      `json:"list_complete"`
	Cursor       string    `json:"cursor,omitempty"`
}

// GetResult is the backend-level outcome of a read: the raw stored bytes,
// whether the key existed, and the HTTP status observed (0 when the backend
// has no wire representation).
type GetResult struct {
	Raw    []byte
	Found  bool
	Status int
}

// Diagnostics is a snapshot of the per-client side channel. It is reset at
// the start of every public operation and describes the most recent one, so
// it must be read before the next call on the same client.
type Diagnostics struct {
	LastError string
	// LastStatusCode is the HTTP status of the last response, or 0 when
	// none was obtained (transport failure, mock backend).
	LastStatusCode int
}

// APIError describes a non-2xx response from the KV API. Message carries the
// detail extracted from the response envelope, or a generic fallback when the
// body held none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// badListResponseMessage is recorded in Diagnostics.LastError when a 2xx
// listing response cannot be interpreted.
const badListResponseMessage = "Failed to parse list_keys response."

// ErrBadListResponse is returned by ListKeys when a 2xx response lacks the
// expected envelope shape (missing success flag or result object).
var ErrBadListResponse = errors.New("kv: failed to parse list_keys response")
