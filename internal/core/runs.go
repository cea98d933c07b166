package core

// runs.go keeps finished runs in memory so their output can be downloaded
// after the results page renders. Entries expire after a TTL and the cache
// is capped, evicting the oldest entry first.

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value   T
	addedAt time.Time
	expires time.Time
}

type runCache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
	ttl     time.Duration
	max     int
	now     func() time.Time
}

func newRunCache[T any](ttl time.Duration, max int) *runCache[T] {
	return &runCache[T]{
		entries: make(map[string]cacheEntry[T]),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

func (c *runCache[T]) put(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[id] = cacheEntry[T]{value: v, addedAt: now, expires: now.Add(c.ttl)}

	for len(c.entries) > c.max {
		var oldestID string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestID == "" || e.addedAt.Before(oldest) {
				oldestID, oldest = k, e.addedAt
			}
		}
		delete(c.entries, oldestID)
	}
}

func (c *runCache[T]) get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || !c.now().Before(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// sweep removes expired entries and returns how many were dropped.
func (c *runCache[T]) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *runCache[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper purges expired runs every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("run sweeper started", "interval", interval, "ttl", s.cfg.Results.TTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("run sweeper stopped")
			return
		case <-ticker.C:
			split, unlocked := s.splitRuns.sweep(), s.unlockRuns.sweep()
			if split+unlocked > 0 {
				slog.Debug("expired runs removed", "split", split, "unlock", unlocked)
			}
		}
	}
}
