package cfapi

import (
	"encoding/json"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	body := []byte(`{"success":true,"errors":[],"result":{"keys":[]}}`)
	env, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success=true")
	}
	if len(env.Result) == 0 {
		t.Fatalf("expected result payload")
	}
}

func TestParseEnvelopeRejectsNonJSON(t *testing.T) {
	if _, err := ParseEnvelope([]byte("<html>bad gateway</html>")); err == nil {
		t.Fatalf("expected error for non-JSON body")
	}
}

func TestErrorMessage(t *testing.T) {
	msg, ok := ErrorMessage([]byte(`{"success":false,"errors":[{"code":10000,"message":"not authorized"}]}`))
	if !ok || msg != "not authorized" {
		t.Fatalf("ErrorMessage = %q, %v", msg, ok)
	}

	if _, ok := ErrorMessage([]byte(`{"success":false,"errors":[]}`)); ok {
		t.Fatalf("expected no message for empty errors array")
	}

	if _, ok := ErrorMessage([]byte("plain text error")); ok {
		t.Fatalf("expected no message for plain text body")
	}
}

func TestDecodeResult(t *testing.T) {
	body := []byte(`{"success":true,"result":{"keys":[{"name":"a"}],"list_complete":true}}`)
	var result struct {
		Keys []struct {
			Name string `json:"name"`
		} `json:"keys"`
		ListComplete bool `json:"list_complete"`
	}
	if err := DecodeResult(body, &result); err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if len(result.Keys) != 1 || result.Keys[0].Name != "a" || !result.ListComplete {
		t.Fatalf("unexpected result: %#v", result)
	}

	var nullOut json.RawMessage
	if err := DecodeResult([]byte(`{"success":true}`), &nullOut); err != nil {
		t.Fatalf("DecodeResult missing result: %v", err)
	}
	if string(nullOut) != "null" {
		t.Fatalf("expected null payload, got %s", nullOut)
	}
}
