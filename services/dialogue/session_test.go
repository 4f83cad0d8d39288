package dialogue

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSessionLocksSerializeSameSession(t *testing.T) {
	var locks sessionLocks

	const workers = 16
	const turns = 50

	var wg sync.WaitGroup
	var violations int32
	holders := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < turns; j++ {
				lock := locks.acquire("sess-1")
				holders++
				if holders != 1 {
					atomic.AddInt32(&violations, 1)
				}
				holders--
				locks.release("sess-1", lock)
			}
		}()
	}
	wg.Wait()

	if violations != 0 {
		t.Fatalf("%d turns overlapped on one session", violations)
	}
}

func TestSessionLocksReapIdleEntries(t *testing.T) {
	var locks sessionLocks

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				lock := locks.acquire(id)
				locks.release(id, lock)
			}(id)
		}
	}
	wg.Wait()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if n := len(locks.m); n != 0 {
		t.Fatalf("registry kept %d entries after all turns released", n)
	}
}
