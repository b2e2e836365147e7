// Package poller runs the fallback reconciliation loop. Push delivery is best
// effort; the poller re-reads the ride mirror on a fixed interval so the views
// keep moving even when the websocket is down.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tick re-reads the mirror once and reacts to any externally written change.
type Tick func(ctx context.Context)

type Poller struct {
	interval time.Duration
	tick     Tick
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, tick Tick, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		interval: interval,
		tick:     tick,
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Start launches the loop. Starting an already running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.log.Info().Dur("interval", p.interval).Msg("fallback poller started")

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}(p.done)
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.log.Info().Msg("fallback poller stopped")
}
