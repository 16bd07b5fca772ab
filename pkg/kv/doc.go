// Package kv provides a lightweight client for the Cloudflare Workers KV
// REST API. A Client is bound to one account-scoped namespace and exposes
// Get/Put/Delete/ListKeys over the /values and /keys endpoints, translating
// non-2xx responses and transport failures into typed errors while keeping a
// per-client diagnostic snapshot (last error message, last HTTP status) for
// callers that want the upstream detail without unwrapping errors.
package kv
