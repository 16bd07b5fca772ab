package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/edgekv/cfkv_sdk_go/internal/cfapi"
	"github.com/edgekv/cfkv_sdk_go/internal/httpx"
)

// DefaultBaseURL is the Cloudflare v4 API root the namespace path is
// appended to.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Backend executes the wire operations for a Client. Implementations return
// the HTTP status they observed (0 when none applies) and classify failures
// as *httpx.TransportError, *APIError, or ErrBadListResponse.
type Backend interface {
	Get(ctx context.Context, key string) (*GetResult, error)
	Put(ctx context.Context, key string, body []byte, contentType string, opts *PutOptions) (int, error)
	Delete(ctx context.Context, key string) (int, error)
	ListKeys(ctx context.Context, opts ListOptions) (*ListResult, int, error)
}

// Client provides access to one Workers KV namespace.
type Client struct {
	backend Backend
	diag    *diagState
}

// Option configures client construction.
type Option func(*options)

type options struct {
	apiBase  string
	sink     func(string)
	httpOpts []httpx.Option
}

// WithAPIBaseURL replaces the Cloudflare API root, typically to point at the
// local sandbox.
func WithAPIBaseURL(base string) Option {
	return func(o *options) {
		if strings.TrimSpace(base) != "" {
			o.apiBase = base
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, httpx.WithHTTPClient(h))
	}
}

// WithErrorSink replaces the destination error notices are rendered to
// (stdlib log by default). Messages arrive already escaped for display.
func WithErrorSink(sink func(string)) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// New constructs a Client bound to the namespace identified by accountID and
// namespaceID, authenticating every request with apiToken.
func New(accountID, namespaceID, apiToken string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, errors.New("kv: account ID is required")
	}
	if strings.TrimSpace(namespaceID) == "" {
		return nil, errors.New("kv: namespace ID is required")
	}
	if strings.TrimSpace(apiToken) == "" {
		return nil, errors.New("kv: API token is required")
	}

	o := options{apiBase: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	base := fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s",
		strings.TrimRight(o.apiBase, "/"), url.PathEscape(accountID), url.PathEscape(namespaceID))

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+apiToken)
	headers.Set("Content-Type", "application/json")

	hc, err := httpx.NewClient(base, append([]httpx.Option{httpx.WithHeaders(headers)}, o.httpOpts...)...)
	if err != nil {
		return nil, err
	}
	return newClient(&httpBackend{client: hc}, o.sink), nil
}

// NewWithBackend allows callers to supply a custom backend (e.g. mocks).
func NewWithBackend(b Backend, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newClient(b, o.sink)
}

func newClient(b Backend, sink func(string)) *Client {
	c := &Client{backend: b, diag: newDiagState(sink)}
	if debugEnabled() {
		c.diag.setShowErrors(true)
	}
	return c
}

func debugEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envDebug))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Get retrieves the value stored under key. A missing key (HTTP 404) returns
// (nil, nil) and records no diagnostic; it is not an error. See Item for how
// the returned value is decoded.
func (c *Client) Get(ctx context.Context, key string) (*Item, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("kv: client is nil")
	}
	c.diag.reset()
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("kv: key is required")
	}

	res, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, c.finish(0, err)
	}
	c.diag.setStatus(res.Status)
	if !res.Found {
		return nil, nil
	}
	return decodeItem(key, res.Raw), nil
}

// GetAs retrieves a value and decodes it strictly into T. A missing key
// returns (nil, nil); a body that does not decode into T is an error, unlike
// the opportunistic Client.Get.
func GetAs[T any](ctx context.Context, client *Client, key string) (*T, error) {
	if client == nil || client.backend == nil {
		return nil, errors.New("kv: client is nil")
	}
	client.diag.reset()
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("kv: key is required")
	}

	res, err := client.backend.Get(ctx, key)
	if err != nil {
		return nil, client.finish(0, err)
	}
	client.diag.setStatus(res.Status)
	if !res.Found {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return nil, fmt.Errorf("kv: decode value for %q: %w", key, err)
	}
	return &out, nil
}

// Put stores value under key. Structured values (maps, slices, structs and
// pointers to them) are JSON-encoded and sent as application/json; strings,
// byte slices, numbers and bools are sent verbatim as text/plain.
func (c *Client) Put(ctx context.Context, key string, value any, opts *PutOptions) error {
	if c == nil || c.backend == nil {
		return errors.New("kv: client is nil")
	}
	c.diag.reset()
	if strings.TrimSpace(key) == "" {
		return errors.New("kv: key is required")
	}

	body, contentType, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("kv: encode value: %w", err)
	}

	status, err := c.backend.Put(ctx, key, body, contentType, opts)
	return c.finish(status, err)
}

// Delete removes key from the namespace.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.backend == nil {
		return errors.New("kv: client is nil")
	}
	c.diag.reset()
	if strings.TrimSpace(key) == "" {
		return errors.New("kv: key is required")
	}

	status, err := c.backend.Delete(ctx, key)
	return c.finish(status, err)
}

// ListKeys returns one page of key names. A non-zero Limit is clamped into
// [1, 1000] before it is sent; zero omits the parameter.
func (c *Client) ListKeys(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("kv: client is nil")
	}
	c.diag.reset()

	if opts.Limit != 0 {
		if opts.Limit < 1 {
			opts.Limit = 1
		}
		if opts.Limit > 1000 {
			opts.Limit = 1000
		}
	}

	res, status, err := c.backend.ListKeys(ctx, opts)
	if err != nil {
		return nil, c.finish(status, err)
	}
	c.diag.setStatus(status)
	return res, nil
}

// Diagnostics returns the side-channel snapshot for the most recent
// operation. Read it before the next call on the same client resets it.
func (c *Client) Diagnostics() Diagnostics {
	return c.diag.snapshot()
}

// ShowErrors toggles error-notice display and returns the previous setting.
func (c *Client) ShowErrors(show bool) bool {
	return c.diag.setShowErrors(show)
}

// HideErrors disables error-notice display.
func (c *Client) HideErrors() {
	c.diag.setShowErrors(false)
}

// SuppressErrors overrides notice display regardless of ShowErrors, returning
// the previous setting. Intended for callers that batch operations and render
// failures themselves.
func (c *Client) SuppressErrors(suppress bool) bool {
	return c.diag.setSuppressErrors(suppress)
}

// PrintError renders message (or the last recorded error when empty) through
// the configured sink, honoring the display toggles.
func (c *Client) PrintError(message string) {
	c.diag.notify(message)
}

// finish records diagnostics for a completed backend call and passes err
// through unchanged.
func (c *Client) finish(status int, err error) error {
	c.diag.setStatus(status)
	if err == nil {
		return nil
	}

	var ae *APIError
	var te *httpx.TransportError
	switch {
	case errors.As(err, &ae):
		c.diag.setStatus(ae.StatusCode)
		c.diag.fail(ae.Message)
	case errors.As(err, &te):
		c.diag.fail(transportMessage(te))
	case errors.Is(err, ErrBadListResponse):
		c.diag.fail(badListResponseMessage)
	default:
		c.diag.fail(err.Error())
	}
	return err
}

func transportMessage(te *httpx.TransportError) string {
	if te.Err != nil {
		return te.Err.Error()
	}
	return te.Error()
}

func decodeItem(key string, raw []byte) *Item {
	item := &Item{Key: key, Raw: raw}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		item.Value = v
	} else {
		item.Value = string(raw)
	}
	return item
}

// encodeValue maps a Go value onto the wire body and content type. The store
// does not distinguish payload types, so the split mirrors what readers will
// infer: JSON for structured values, plain text for scalars.
func encodeValue(value any) ([]byte, string, error) {
	switch v := value.(type) {
	case nil:
		return []byte("null"), "application/json", nil
	case string:
		return []byte(v), "text/plain", nil
	case []byte:
		return v, "text/plain", nil
	case json.RawMessage:
		return v, "application/json", nil
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return []byte(fmt.Sprint(v)), "text/plain", nil
	default:
		data, err := jsonMarshal(v)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) Get(ctx context.Context, key string) (*GetResult, error) {
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "values/" + url.PathEscape(key),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return &GetResult{Status: resp.StatusCode}, nil
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, newAPIError(resp)
	}
	return &GetResult{Raw: resp.Body, Found: true, Status: resp.StatusCode}, nil
}

func (b *httpBackend) Put(ctx context.Context, key string, body []byte, contentType string, opts *PutOptions) (int, error) {
	q := url.Values{}
	if opts != nil && opts.ExpirationTTL > 0 {
		q.Set("expiration_ttl", strconv.Itoa(opts.ExpirationTTL))
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodPut,
		Path:   "values/" + url.PathEscape(key),
		Query:  q,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return 0, err
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		return resp.StatusCode, newAPIError(resp)
	}
	return resp.StatusCode, nil
}

func (b *httpBackend) Delete(ctx context.Context, key string) (int, error) {
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		Path:   "values/" + url.PathEscape(key),
	})
	if err != nil {
		return 0, err
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		return resp.StatusCode, newAPIError(resp)
	}
	return resp.StatusCode, nil
}

func (b *httpBackend) ListKeys(ctx context.Context, opts ListOptions) (*ListResult, int, error) {
	q := url.Values{}
	if opts.Prefix != "" {
		q.Set("prefix", opts.Prefix)
	}
	if opts.Limit != 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}

	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "keys",
		Query:  q,
	})
	if err != nil {
		return nil, 0, err
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, resp.StatusCode, newAPIError(resp)
	}

	env, err := cfapi.ParseEnvelope(resp.Body)
	if err != nil || !env.Success || missingResult(env.Result) {
		return nil, resp.StatusCode, ErrBadListResponse
	}
	var result ListResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, resp.StatusCode, ErrBadListResponse
	}
	return &result, resp.StatusCode, nil
}

func missingResult(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// newAPIError classifies a non-2xx response, preferring the message carried
// in the Cloudflare error envelope over the bare status line.
func newAPIError(resp *httpx.Response) *APIError {
	detail, ok := cfapi.ErrorMessage(resp.Body)
	if !ok {
		detail = fmt.Sprintf("Received HTTP %d", resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    "KV API Error: " + detail,
	}
}
