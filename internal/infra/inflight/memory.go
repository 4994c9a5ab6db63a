package inflight

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard tracks pending submissions in process memory.
type MemoryGuard struct {
	mu      sync.Mutex
	ttl     time.Duration
	seq     uint64
	pending map[string]entry
	now     func() time.Time
}

type entry struct {
	token     uint64
	expiresAt time.Time
}

// NewMemoryGuard builds a guard whose claims lapse after ttl even if never released.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:     ttl,
		pending: make(map[string]entry),
		now:     time.Now,
	}
}

// Acquire claims key. ok is false while another claim on key is live.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.evictLocked(now)
	if _, busy := g.pending[key]; busy {
		return nil, false, nil
	}

	g.seq++
	token := g.seq
	g.pending[key] = entry{token: token, expiresAt: now.Add(g.ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			// The claim may have expired and been taken over by a newer submission.
			if cur, ok := g.pending[key]; ok && cur.token == token {
				delete(g.pending, key)
			}
		})
	}
	return release, true, nil
}

func (g *MemoryGuard) evictLocked(now time.Time) {
	for key, e := range g.pending {
		if g.ttl > 0 && !now.Before(e.expiresAt) {
			delete(g.pending, key)
		}
	}
}
