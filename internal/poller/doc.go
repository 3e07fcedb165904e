// Package poller drives the poll-parse-publish-recover cycle.
//
// One cycle fetches the rate-limit snapshot from its source, publishes every
// entry to the metrics sink, and resets the consecutive-failure count. Any
// failure (transport, non-200, malformed header) is logged as a warning and
// counted; once the count of failures before the current one reaches the
// configured ceiling, the failing cycle is returned wrapped in ErrEscalated
// instead of being swallowed, and the process is expected to exit.
//
// The failure tolerance is an explicit two-state machine (Healthy and
// Escalating) so that the reset-on-success behavior is a deliberate,
// testable decision rather than incidental bookkeeping. A successful cycle
// always returns the poller to Healthy.
//
// Start runs the scheduler loop: an initial cycle, then one per interval,
// serialized, until the context is cancelled or a cycle escalates.
package poller
