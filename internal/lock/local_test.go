package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := normalize([]string{"trainer:2", "room:1", "", "trainer:2"})
	if len(got) != 2 || got[0] != "room:1" || got[1] != "trainer:2" {
		t.Fatalf("normalize = %v", got)
	}
}

func TestLocal_SerializesSameKey(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "room:1", "trainer:1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected mutual exclusion, saw %d concurrent holders", maxInside)
	}
}

func TestLocal_OppositeOrderDoesNotDeadlock(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "room:1", "trainer:1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			release()
		}()
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "trainer:1", "room:1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			release()
		}()
	}
	wg.Wait()
}

func TestLocal_TimeoutReleasesPartialKeys(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	release, err := l.Acquire(context.Background(), "trainer:1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "room:1", "trainer:1"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	// room:1 must have been released by the failed attempt.
	r2, err := l.Acquire(context.Background(), "room:1")
	if err != nil {
		t.Fatalf("room:1 should be free: %v", err)
	}
	r2()
	release()
	release() // idempotent

	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected entries to be reclaimed, %d left", n)
	}
}
