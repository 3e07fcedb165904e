// Package server provides the HTTP surface of the exporter.
//
// Available endpoints:
//   - /           : Status page showing poller state and configuration
//   - /metrics    : Prometheus metrics endpoint
//   - /health     : Liveness probe (always returns 200)
//   - /ready      : Readiness probe (returns 200 once a poll cycle succeeded
//     and the latest cycle did not fail)
//
// The server reports on the poller through the small PollerStatus interface
// rather than a concrete type, and serves metrics from an injected registry
// so tests never touch global state.
package server
