package poller

import (
	"context"
	"time"
)

// Start runs an initial cycle and then polls on the given interval until ctx
// is cancelled. Invocations are serialized by construction, which is what
// keeps the poller's failure bookkeeping correct with at most one in-flight
// cycle. A cycle that escalates stops the loop and delivers the error on the
// returned channel; the channel is buffered so the loop never blocks on
// delivery.
func (p *Poller) Start(ctx context.Context, interval time.Duration) <-chan error {
	fatal := make(chan error, 1)

	// Prevent multiple poll loops on the same poller
	if !p.started.CompareAndSwap(false, true) {
		p.logger.Warn("Poll loop already started, skipping")
		return fatal
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer p.started.Store(false)

		if err := p.Run(ctx); err != nil {
			fatal <- err
			return
		}

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Stopping poll loop")
				return
			case <-ticker.C:
				if err := p.Run(ctx); err != nil {
					fatal <- err
					return
				}
			}
		}
	}()

	return fatal
}
