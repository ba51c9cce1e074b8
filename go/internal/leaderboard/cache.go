package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
)

// Fetcher defines what the cache needs from the leaderboard store.
type Fetcher interface {
	FetchTop(ctx context.Context, view models.LeaderboardView, limit int) ([]models.LeaderboardEntry, error)
}

// projections holds the two independently-cached ranked views. A nil slice
// means the view is invalid and the next read re-fetches it.
type projections struct {
	best   []models.LeaderboardEntry
	recent []models.LeaderboardEntry
}

func cloneProjections(p projections) projections {
	return projections{
		best:   cloneEntries(p.best),
		recent: cloneEntries(p.recent),
	}
}

func cloneEntries(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.LeaderboardEntry, len(entries))
	copy(out, entries)
	return out
}

// Cache materializes ranked leaderboard views locally so reads feel
// instantaneous despite the eventually-consistent store behind them. Local
// score mutations are applied optimistically and rolled back exactly when
// the authoritative commit fails.
type Cache struct {
	fetcher Fetcher
	limit   int

	// recordMu serializes whole apply/commit/rollback sequences so one
	// mutation's snapshot never captures another's uncommitted entry.
	recordMu sync.Mutex

	mu   sync.Mutex
	proj projections
}

func NewCache(fetcher Fetcher, limit int) *Cache {
	return &Cache{
		fetcher: fetcher,
		limit:   limit,
	}
}

// Best returns the best-scores projection, fetching it on a cache miss.
func (c *Cache) Best(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return c.view(ctx, models.LeaderboardViewBest)
}

// Recent returns the most-recent-games projection, fetching it on a cache miss.
func (c *Cache) Recent(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return c.view(ctx, models.LeaderboardViewRecent)
}

func (c *Cache) view(ctx context.Context, view models.LeaderboardView) ([]models.LeaderboardEntry, error) {
	c.mu.Lock()
	cached := c.cachedLocked(view)
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	entries, err := c.fetcher.FetchTop(ctx, view, c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard view %s: %w", view, err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch view {
	case models.LeaderboardViewBest:
		c.proj.best = entries
	case models.LeaderboardViewRecent:
		c.proj.recent = entries
	}
	return cloneEntries(entries), nil
}

func (c *Cache) cachedLocked(view models.LeaderboardView) []models.LeaderboardEntry {
	switch view {
	case models.LeaderboardViewBest:
		return cloneEntries(c.proj.best)
	default:
		return cloneEntries(c.proj.recent)
	}
}

// RecordScore applies a score-improving mutation optimistically to both
// projections, then runs the authoritative commit. On commit failure the
// snapshot is restored exactly and the error surfaces without retry; on
// success both projections are invalidated so the next read re-fetches the
// server-computed ranking.
func (c *Cache) RecordScore(ctx context.Context, entry models.LeaderboardEntry, commit func(ctx context.Context) error) error {
	c.recordMu.Lock()
	defer c.recordMu.Unlock()

	c.mu.Lock()
	txn := Begin(c.proj, cloneProjections, func(snapshot projections) {
		c.mu.Lock()
		c.proj = snapshot
		c.mu.Unlock()
	})
	c.applyEntryLocked(entry)
	c.mu.Unlock()

	if err := commit(ctx); err != nil {
		txn.Rollback()
		return fmt.Errorf("leaderboard commit failed: %w", err)
	}

	c.mu.Lock()
	c.proj = projections{}
	c.mu.Unlock()
	return nil
}

// applyEntryLocked inserts or replaces the player's entry in both cached
// projections, re-sorts, and re-caps. Uncached views stay nil; they will be
// fetched authoritatively on the next read anyway.
func (c *Cache) applyEntryLocked(entry models.LeaderboardEntry) {
	if c.proj.best != nil {
		c.proj.best = upsert(c.proj.best, entry)
		sort.SliceStable(c.proj.best, func(i, j int) bool {
			return c.proj.best[i].BestScore > c.proj.best[j].BestScore
		})
		c.proj.best = capped(c.proj.best, c.limit)
	}
	if c.proj.recent != nil {
		c.proj.recent = upsert(c.proj.recent, entry)
		sort.SliceStable(c.proj.recent, func(i, j int) bool {
			return c.proj.recent[i].LastPlayedAt.After(c.proj.recent[j].LastPlayedAt)
		})
		c.proj.recent = capped(c.proj.recent, c.limit)
	}
}

func upsert(entries []models.LeaderboardEntry, entry models.LeaderboardEntry) []models.LeaderboardEntry {
	for i := range entries {
		if entries[i].PlayerID == entry.PlayerID {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

func capped(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	if len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}
