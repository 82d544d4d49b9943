// Package blacklist holds access tokens revoked before their natural expiry
// (e.g. on logout). Entries live in process memory only; durability is not a
// goal because every entry outlives its token by at most the token TTL.
package blacklist

import (
	"sync"
	"time"
)

// Blacklist is a concurrency-safe set of revoked tokens with per-entry expiry.
// Membership is always evaluated against current time: an entry whose expiry
// has passed is evicted on read, so stale entries never reject a request.
type Blacklist struct {
	mu   sync.RWMutex
	m    map[string]time.Time
	nowF func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// New returns an empty Blacklist. Call StartSweeper to bound memory growth and
// Stop on shutdown.
func New() *Blacklist {
	return &Blacklist{
		m:    make(map[string]time.Time),
		nowF: func() time.Time { return time.Now().UTC() },
		done: make(chan struct{}),
	}
}

// Add inserts or overwrites the token with the given expiry.
func (b *Blacklist) Add(token string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[token] = expiresAt
}

// IsBlacklisted reports whether the token is currently blacklisted.
// An entry past its expiry is removed and reported as not blacklisted.
func (b *Blacklist) IsBlacklisted(token string) bool {
	b.mu.RLock()
	expiresAt, ok := b.m[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if !expiresAt.After(b.nowF()) {
		b.mu.Lock()
		delete(b.m, token)
		b.mu.Unlock()
		return false
	}
	return true
}

// Remove deletes the token from the blacklist.
func (b *Blacklist) Remove(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, token)
}

// Sweep removes all expired entries and returns how many were purged.
// The sweeper calls this periodically; correctness does not depend on it.
func (b *Blacklist) Sweep() int {
	now := b.nowF()
	b.mu.Lock()
	defer b.mu.Unlock()
	purged := 0
	for token, expiresAt := range b.m {
		if !expiresAt.After(now) {
			delete(b.m, token)
			purged++
		}
	}
	return purged
}

// StartSweeper launches a goroutine that calls Sweep every interval until Stop.
func (b *Blacklist) StartSweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Sweep()
			case <-b.done:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine. Safe to call more than once, and
// safe even if StartSweeper was never called.
func (b *Blacklist) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Clear removes all entries.
func (b *Blacklist) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = make(map[string]time.Time)
}

// Size returns the number of entries, expired or not.
func (b *Blacklist) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.m)
}
