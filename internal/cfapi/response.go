// Package cfapi decodes the Cloudflare v4 API response envelope shared by
// every endpoint: {"success": bool, "errors": [...], "messages": [...],
// "result": ...}.
package cfapi

import (
	"bytes"
	"encoding/json"
)

// Message is one entry of the envelope's errors or messages arrays.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the outer object wrapping every v4 API response.
type Envelope struct {
	Success bool            `json:"success"`
	Errors  []Message       `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

// ParseEnvelope decodes body into an Envelope. A body that is not a JSON
// object (or is empty) yields an error; callers treat that as an unparseable
// response, not as an API failure.
func ParseEnvelope(body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ErrorMessage extracts the first error message from an envelope body.
// The second return reports whether a message was actually present; error
// responses from intermediaries (HTML pages, plain text) simply yield false.
func ErrorMessage(body []byte) (string, bool) {
	env, err := ParseEnvelope(body)
	if err != nil {
		return "", false
	}
	if len(env.Errors) == 0 || env.Errors[0].Message == "" {
		return "", false
	}
	return env.Errors[0].Message, true
}

// DecodeResult parses the envelope and unmarshals its result field into out.
// A missing result field populates out with JSON null.
func DecodeResult(body []byte, out any) error {
	env, err := ParseEnvelope(body)
	if err != nil {
		return err
	}
	payload := env.Result
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return json.Unmarshal(payload, out)
}
