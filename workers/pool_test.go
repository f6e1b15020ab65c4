package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	got := Map(context.Background(), 3, items, func() func(context.Context, int) int {
		return func(_ context.Context, n int) int {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10
		}
	})
	for i, n := range items {
		if got[i] != n*10 {
			t.Fatalf("result %d: expected %d, got %d", i, n*10, got[i])
		}
	}
}

func TestMap_BoundsConcurrencyAndBuildsOnePerWorker(t *testing.T) {
	var running, peak, built int32
	items := make([]int, 20)

	Map(context.Background(), 4, items, func() func(context.Context, int) bool {
		atomic.AddInt32(&built, 1)
		return func(_ context.Context, _ int) bool {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return true
		}
	})

	if peak > 4 {
		t.Errorf("expected at most 4 concurrent jobs, saw %d", peak)
	}
	if built != 4 {
		t.Errorf("expected one job function per worker, got %d", built)
	}
}

func TestMap_EmptyAndCancelled(t *testing.T) {
	if got := Map(context.Background(), 3, []string{}, func() func(context.Context, string) string {
		return func(_ context.Context, s string) string { return s }
	}); len(got) != 0 {
		t.Fatalf("expected empty result")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := Map(ctx, 2, []string{"a", "b", "c"}, func() func(context.Context, string) string {
		return func(_ context.Context, s string) string { return s }
	})
	if len(got) != 3 {
		t.Fatalf("result slice must match input length, got %d", len(got))
	}
}

func TestURLSet(t *testing.T) {
	set := NewURLSet()
	var wg sync.WaitGroup
	var added int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Add("https://example.com/a") {
				atomic.AddInt32(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly one successful Add, got %d", added)
	}
	if !set.Contains("https://example.com/a") || set.Contains("https://example.com/b") {
		t.Errorf("unexpected Contains result")
	}
	if set.Size() != 1 {
		t.Errorf("expected size 1, got %d", set.Size())
	}
}
