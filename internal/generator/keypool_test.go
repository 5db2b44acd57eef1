package generator_test

import (
	"sync"
	"testing"

	"github.com/parley-dev/parley/internal/generator"
)

func TestKeyPool_RoundRobin(t *testing.T) {
	t.Parallel()

	pool := generator.NewKeyPool([]string{"a", "b", "c"})

	want := []string{"a", "b", "c", "a", "b", "c", "a"}
	for i, w := range want {
		if got := pool.Next(); got != w {
			t.Fatalf("Next() call %d = %q, want %q", i+1, got, w)
		}
	}
}

func TestKeyPool_Empty(t *testing.T) {
	t.Parallel()

	pool := generator.NewKeyPool(nil)
	if got := pool.Next(); got != "" {
		t.Errorf("Next() on empty pool = %q, want empty", got)
	}
	if got := pool.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestKeyPool_NilReceiver(t *testing.T) {
	t.Parallel()

	var pool *generator.KeyPool
	if got := pool.Next(); got != "" {
		t.Errorf("Next() on nil pool = %q, want empty", got)
	}
	if got := pool.Len(); got != 0 {
		t.Errorf("Len() on nil pool = %d, want 0", got)
	}
}

func TestKeyPool_CopiesInput(t *testing.T) {
	t.Parallel()

	keys := []string{"a", "b"}
	pool := generator.NewKeyPool(keys)
	keys[0] = "mutated"

	if got := pool.Next(); got != "a" {
		t.Errorf("Next() = %q, want %q (pool must not alias caller slice)", got, "a")
	}
}

func TestKeyPool_Swap(t *testing.T) {
	t.Parallel()

	pool := generator.NewKeyPool([]string{"a", "b"})
	if got := pool.Next(); got != "a" {
		t.Fatalf("Next() = %q, want %q", got, "a")
	}

	pool.Swap([]string{"x", "y", "z"})
	if got := pool.Len(); got != 3 {
		t.Fatalf("Len() after swap = %d, want 3", got)
	}
	// Counter is at 1, so the next draw lands on index 1 of the new set.
	if got := pool.Next(); got != "y" {
		t.Errorf("Next() after swap = %q, want %q", got, "y")
	}

	pool.Swap(nil)
	if got := pool.Next(); got != "" {
		t.Errorf("Next() after swap to empty = %q, want empty", got)
	}
}

func TestKeyPool_ConcurrentFairness(t *testing.T) {
	t.Parallel()

	pool := generator.NewKeyPool([]string{"a", "b"})

	const workers = 8
	const perWorker = 100

	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				k := pool.Next()
				mu.Lock()
				counts[k]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	if counts["a"]+counts["b"] != total {
		t.Fatalf("total draws = %d, want %d", counts["a"]+counts["b"], total)
	}
	// Round-robin over two keys splits an even draw count exactly in half.
	if counts["a"] != total/2 || counts["b"] != total/2 {
		t.Errorf("draws = a:%d b:%d, want %d each", counts["a"], counts["b"], total/2)
	}
}
