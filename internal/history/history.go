// Package history keeps a log of completed split and unlock runs.
//
// Two stores are provided: a Postgres store used when DATABASE_URL is set,
// and an in-memory store for single-instance deployments and tests.
package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Kind identifies which tool produced a run.
type Kind string

const (
	KindSplit  Kind = "split"
	KindUnlock Kind = "unlock"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

// Run is one completed run as shown on the history page.
//
// For split runs Records, Valid and Invalid carry the summary counts.
// For unlock runs Valid is the number of unlocked files and Failed the
// number of files that could not be decrypted.
type Run struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	FileName  string    `json:"file_name"`
	Records   int       `json:"records"`
	Valid     int       `json:"valid"`
	Invalid   int       `json:"invalid"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// MemoryStore is a bounded, concurrency-safe Store.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []Run
	max  int
}

// NewMemoryStore keeps at most max runs, dropping the oldest first.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStore{max: max}
}

func (m *MemoryStore) Record(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	if over := len(m.runs) - m.max; over > 0 {
		m.runs = append(m.runs[:0:0], m.runs[over:]...)
	}
	return nil
}

// Recent returns runs newest first.
func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	m.mu.RLock()
	out := make([]Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, m.runs[i])
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
