package battlequeue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Supplier provides one battle per request. Implemented by the matchup API
// client in production and by fakes in tests.
type Supplier interface {
	GetMatchup(ctx context.Context) (*models.Battle, error)
}

// AssetPreloader warms any image-like assets a battle references. Best effort;
// implementations must never block or fail the caller.
type AssetPreloader interface {
	Preload(battle *models.Battle)
}

// Config holds queue tuning knobs.
type Config struct {
	// LowWaterMark is the depth at or below which a background refill fires.
	LowWaterMark int
	// RefillBatch is how many battles one background refill fetches.
	RefillBatch int
	// FetchTimeout bounds each supplier call made by the queue itself.
	FetchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		LowWaterMark: 2,
		RefillBatch:  3,
		FetchTimeout: 10 * time.Second,
	}
}

// Queue is an in-memory FIFO buffer of pre-fetched battles. Background
// refills are single-flight and append-only, so already-queued battles are
// never reordered and Take never blocks on the network.
type Queue struct {
	supplier  Supplier
	preloader AssetPreloader
	config    Config

	mu             sync.Mutex
	battles        []*models.Battle
	refillInFlight bool
}

func New(supplier Supplier, preloader AssetPreloader, config Config) *Queue {
	return &Queue{
		supplier:  supplier,
		preloader: preloader,
		config:    config,
	}
}

// Prime fires n concurrent supplier requests and appends results in arrival
// order. It returns immediately; the caller's rendering never waits on it.
func (q *Queue) Prime(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go func() {
			battle, err := q.fetchOne(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("battle prime fetch failed")
				return
			}
			q.append(battle)
		}()
	}
}

// Take pops the head of the queue. When the remaining depth crosses the
// low-water mark and no refill is already in flight, a background refill is
// triggered; the refill never blocks the caller.
func (q *Queue) Take() (*models.Battle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.battles) == 0 {
		q.maybeRefillLocked()
		return nil, false
	}

	battle := q.battles[0]
	q.battles = q.battles[1:]
	q.maybeRefillLocked()
	return battle, true
}

// TakeOrFetch behaves like Take but falls back to a single foreground fetch
// when the queue is empty. The error is retryable; callers surface a loading
// state rather than crashing the game loop.
func (q *Queue) TakeOrFetch(ctx context.Context) (*models.Battle, error) {
	if battle, ok := q.Take(); ok {
		return battle, nil
	}

	battle, err := q.fetchOne(ctx)
	if err != nil {
		return nil, fmt.Errorf("foreground battle fetch failed: %w", err)
	}
	return battle, nil
}

// Depth reports the current number of queued battles.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.battles)
}

func (q *Queue) append(battle *models.Battle) {
	q.mu.Lock()
	q.battles = append(q.battles, battle)
	q.mu.Unlock()
}

func (q *Queue) maybeRefillLocked() {
	if len(q.battles) > q.config.LowWaterMark || q.refillInFlight {
		return
	}
	q.refillInFlight = true
	go q.refill()
}

// refill fetches a batch and appends each battle as it arrives. A failed
// fetch is logged and abandoned; the flag reset lets the next low-water
// crossing retry. Refill errors never reach the foreground game loop.
func (q *Queue) refill() {
	defer func() {
		q.mu.Lock()
		q.refillInFlight = false
		q.mu.Unlock()
	}()

	for i := 0; i < q.config.RefillBatch; i++ {
		battle, err := q.fetchOne(context.Background())
		if err != nil {
			log.Warn().Err(err).Int("fetched", i).Msg("background battle refill failed")
			return
		}
		q.append(battle)
	}
}

func (q *Queue) fetchOne(ctx context.Context) (*models.Battle, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.FetchTimeout)
	defer cancel()

	battle, err := q.supplier.GetMatchup(ctx)
	if err != nil {
		return nil, err
	}
	if q.preloader != nil {
		q.preloader.Preload(battle)
	}
	return battle, nil
}
