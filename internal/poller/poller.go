package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgalpaj/azure-throttling-exporter/internal/azure"
	"github.com/dgalpaj/azure-throttling-exporter/internal/clock"
	"github.com/dgalpaj/azure-throttling-exporter/internal/logger"
	"github.com/dgalpaj/azure-throttling-exporter/internal/metrics"
)

// ErrEscalated marks a cycle failure that exhausted the consecutive-failure
// ceiling. The underlying cause is wrapped alongside it.
var ErrEscalated = errors.New("unable to get rates after repeated attempts")

// RateLimitSource fetches the remaining-budget snapshot for one target
type RateLimitSource interface {
	FetchRateLimits(ctx context.Context) (azure.Snapshot, error)
}

// State is the poller's failure-tolerance state
type State int

const (
	// StateHealthy tolerates further failures
	StateHealthy State = iota

	// StateEscalating means the ceiling was exhausted and the latest failing
	// cycle was re-raised as fatal
	StateEscalating
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateEscalating:
		return "escalating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// nextState decides the transition after a failing cycle, given the count of
// consecutive failures before this one
func nextState(priorFailures, ceiling int) State {
	if priorFailures >= ceiling {
		return StateEscalating
	}
	return StateHealthy
}

// Poller drives the poll-parse-publish-recover cycle for a single target.
// Cycle invocations must not overlap; the scheduler serializes them. The
// mutex only guards the status fields read by the HTTP server.
type Poller struct {
	source  RateLimitSource
	sink    metrics.Sink
	ceiling int
	logger  *logger.Logger
	clock   clock.Clock
	started atomic.Bool // Prevent multiple scheduler loops

	mu        sync.RWMutex
	failures  int
	state     State
	lastCycle time.Time
	lastErr   error
	succeeded bool
}

// New creates a poller with the given consecutive-failure ceiling
func New(source RateLimitSource, sink metrics.Sink, ceiling int, log *logger.Logger) *Poller {
	return &Poller{
		source:  source,
		sink:    sink,
		ceiling: ceiling,
		logger:  log,
		clock:   clock.RealClock{},
	}
}

// Run executes one cycle: fetch the snapshot, publish every entry as a gauge
// observation, and reset the consecutive-failure count. Any fetch error is
// swallowed after logging and counting, until the count of failures before
// the current one reaches the ceiling; that failure is returned wrapped in
// ErrEscalated and the caller is expected to treat it as fatal.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Debug("Poll cycle start")
	start := time.Now()

	snapshot, err := p.source.FetchRateLimits(ctx)
	duration := time.Since(start)
	if err != nil {
		return p.fail(err, duration)
	}

	for rate, remaining := range snapshot {
		p.sink.SetRemaining(rate, float64(remaining))
	}
	p.sink.ObserveCycle(duration, true)

	p.mu.Lock()
	p.failures = 0
	p.state = StateHealthy
	p.lastCycle = p.clock.Now()
	p.lastErr = nil
	p.succeeded = true
	p.mu.Unlock()

	p.logger.Debug("Poll cycle complete",
		"rates", len(snapshot),
		"duration_seconds", duration.Seconds())
	return nil
}

// fail records a failing cycle. Transport, protocol, and parse failures all
// collapse here: only the consecutive count decides escalation.
func (p *Poller) fail(err error, duration time.Duration) error {
	p.sink.IncFailures()
	p.sink.ObserveCycle(duration, false)

	p.mu.Lock()
	prior := p.failures
	p.failures++
	p.state = nextState(prior, p.ceiling)
	p.lastCycle = p.clock.Now()
	p.lastErr = err
	state := p.state
	p.mu.Unlock()

	if state == StateEscalating {
		p.logger.Error("Unable to get rates after repeated attempts",
			"consecutive_failures", prior+1,
			"error", err)
		return fmt.Errorf("%w: %w", ErrEscalated, err)
	}

	p.logger.Warn("Unable to get rates, waiting for the next cycle",
		"consecutive_failures", prior+1,
		"error", err)
	return nil
}

// IsReady returns true once at least one cycle has succeeded
func (p *Poller) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.succeeded
}

// LastError returns the error of the most recent failing cycle, or nil if
// the most recent cycle succeeded
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// LastCycleTime returns the completion time of the most recent cycle
func (p *Poller) LastCycleTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCycle
}

// ConsecutiveFailures returns the current consecutive-failure count
func (p *Poller) ConsecutiveFailures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.failures
}

// State returns the current failure-tolerance state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
