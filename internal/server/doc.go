// Package server owns the TCP ingest transport around the decoder.
//
// Ownership boundary:
// - listener accept loop and connection lifecycle
// - one dispatcher (parser + buffer pool) per connection
// - message sinks (structured log, metrics)
// - admin HTTP surface (health, readiness, metrics, schema listing)
//
// A fatal decode error closes only the offending connection; parsing state
// is never shared between connections.
package server
