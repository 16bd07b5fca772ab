package httpx

import "fmt"

// TransportError wraps a failure that happened before any HTTP status was
// obtained: DNS resolution, connection setup, TLS handshake, or the request
// timeout firing.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "httpx: transport failure"
	}
	return fmt.Sprintf("httpx: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
