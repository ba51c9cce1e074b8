package scoring

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sampler periodically recomputes the live point estimate for a round so the
// UI can show points draining away. The sampled value is display-only; the
// verifier's server-computed points are the only value ever credited.
//
// The sampler is an explicitly owned resource: Start on round begin, Stop the
// instant a selection lands or the owner tears down. Stop is idempotent.
type Sampler struct {
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewSampler creates a sampler ticking at the given interval.
func NewSampler(clock clockwork.Clock, interval time.Duration) *Sampler {
	return &Sampler{
		clock:    clock,
		interval: interval,
	}
}

// Start begins sampling points for a round that became interactive at
// roundStart. Any previous run is stopped first, so repeated rounds cannot
// leak tickers.
func (s *Sampler) Start(roundStart time.Time, emit func(points int)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	stopCh := make(chan struct{})
	s.stopCh = stopCh

	go func() {
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.Chan():
				// A tick can race the stop signal; never emit after Stop.
				select {
				case <-stopCh:
					return
				default:
				}
				emit(PointsFor(s.clock.Since(roundStart)))
			}
		}
	}()
}

// Stop halts sampling. Safe to call when the sampler is not running.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Sampler) stopLocked() {
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}
