package blacklist

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBlacklist_AddAndCheck(t *testing.T) {
	b := New()
	b.Add("tok1", time.Now().UTC().Add(time.Hour))

	if !b.IsBlacklisted("tok1") {
		t.Error("tok1 should be blacklisted")
	}
	if b.IsBlacklisted("tok2") {
		t.Error("tok2 should not be blacklisted")
	}
}

func TestBlacklist_LazyExpiry(t *testing.T) {
	b := New()
	now := time.Now().UTC()
	b.nowF = func() time.Time { return now }
	b.Add("tok1", now.Add(time.Minute))

	if !b.IsBlacklisted("tok1") {
		t.Fatal("tok1 should be blacklisted before expiry")
	}

	b.nowF = func() time.Time { return now.Add(2 * time.Minute) }
	if b.IsBlacklisted("tok1") {
		t.Error("tok1 should not be blacklisted after expiry")
	}
	if b.Size() != 0 {
		t.Errorf("Size = %d, want 0 after lazy eviction", b.Size())
	}
}

func TestBlacklist_Sweep(t *testing.T) {
	b := New()
	now := time.Now().UTC()
	b.nowF = func() time.Time { return now }
	b.Add("expired1", now.Add(-time.Minute))
	b.Add("expired2", now.Add(-time.Second))
	b.Add("live", now.Add(time.Hour))

	if purged := b.Sweep(); purged != 2 {
		t.Errorf("Sweep purged %d, want 2", purged)
	}
	if b.Size() != 1 {
		t.Errorf("Size = %d, want 1", b.Size())
	}
	if !b.IsBlacklisted("live") {
		t.Error("live entry should survive sweep")
	}
}

func TestBlacklist_AddOverwrites(t *testing.T) {
	b := New()
	now := time.Now().UTC()
	b.nowF = func() time.Time { return now }
	b.Add("tok", now.Add(-time.Minute))
	b.Add("tok", now.Add(time.Hour))

	if !b.IsBlacklisted("tok") {
		t.Error("overwritten entry should use the new expiry")
	}
	if b.Size() != 1 {
		t.Errorf("Size = %d, want 1", b.Size())
	}
}

func TestBlacklist_ClearAndSize(t *testing.T) {
	b := New()
	b.Add("a", time.Now().UTC().Add(time.Hour))
	b.Add("b", time.Now().UTC().Add(time.Hour))
	if b.Size() != 2 {
		t.Errorf("Size = %d, want 2", b.Size())
	}
	b.Clear()
	if b.Size() != 0 {
		t.Errorf("Size after Clear = %d, want 0", b.Size())
	}
}

func TestBlacklist_SweeperStop(t *testing.T) {
	b := New()
	b.StartSweeper(time.Millisecond)
	b.Add("expired", time.Now().UTC().Add(-time.Hour))
	time.Sleep(20 * time.Millisecond)
	b.Stop()
	b.Stop() // idempotent

	if b.Size() != 0 {
		t.Errorf("Size = %d, want 0 after background sweep", b.Size())
	}
}

func TestBlacklist_ConcurrentAccess(t *testing.T) {
	b := New()
	b.StartSweeper(time.Millisecond)
	defer b.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tok := fmt.Sprintf("tok-%d-%d", n, j)
				b.Add(tok, time.Now().UTC().Add(time.Duration(j%5)*time.Millisecond))
				b.IsBlacklisted(tok)
				if j%50 == 0 {
					b.Sweep()
				}
			}
		}(i)
	}
	wg.Wait()
}
