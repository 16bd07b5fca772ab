package kv

import (
	"html"
	"log"
	"sync"
)

// diagState holds the per-client diagnostic side channel together with the
// error-notice toggles. All access goes through the mutex so a shared client
// does not race, though LastError/LastStatusCode still describe only the most
// recent operation.
type diagState struct {
	mu             sync.Mutex
	lastError      string
	lastStatusCode int
	showErrors     bool
	suppressErrors bool
	sink           func(string)
}

func newDiagState(sink func(string)) *diagState {
	if sink == nil {
		sink = func(msg string) {
			log.Printf("cfkv: %s", msg)
		}
	}
	return &diagState{sink: sink}
}

// reset clears the snapshot at the start of a public operation.
func (d *diagState) reset() {
	d.mu.Lock()
	d.lastError = ""
	d.lastStatusCode = 0
	d.mu.Unlock()
}

// setStatus records the HTTP status once one has been obtained.
func (d *diagState) setStatus(code int) {
	if code == 0 {
		return
	}
	d.mu.Lock()
	d.lastStatusCode = code
	d.mu.Unlock()
}

// fail records msg as the last error and emits a notice if enabled.
func (d *diagState) fail(msg string) {
	d.mu.Lock()
	d.lastError = msg
	emit := d.showErrors && !d.suppressErrors
	sink := d.sink
	d.mu.Unlock()
	if emit {
		sink(html.EscapeString(msg))
	}
}

// notify renders msg (or the last error when msg is empty) through the sink,
// honoring the display toggles.
func (d *diagState) notify(msg string) {
	d.mu.Lock()
	if msg == "" {
		msg = d.lastError
	}
	emit := d.showErrors && !d.suppressErrors && msg != ""
	sink := d.sink
	d.mu.Unlock()
	if emit {
		sink(html.EscapeString(msg))
	}
}

func (d *diagState) snapshot() Diagnostics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Diagnostics{
		LastError:      d.lastError,
		LastStatusCode: d.lastStatusCode,
	}
}

func (d *diagState) setShowErrors(show bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.showErrors
	d.showErrors = show
	return prev
}

func (d *diagState) setSuppressErrors(suppress bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.suppressErrors
	d.suppressErrors = suppress
	return prev
}
