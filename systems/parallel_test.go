package systems

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolCoversEveryItemOnce(t *testing.T) {
	for _, n := range []int{0, 1, 10, parallelThreshold, 1000} {
		pool := NewWorkerPool(4)
		hits := make([]int32, n)
		var busy [4]atomic.Int32

		pool.Run(n, func(start, end, worker int) {
			if busy[worker].Add(1) != 1 {
				t.Errorf("worker slot %d used concurrently", worker)
			}
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
			busy[worker].Add(-1)
		})
		pool.Stop()

		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: item %d processed %d times", n, i, h)
			}
		}
	}
}

func TestWorkerPoolReusable(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Stop()

	var total atomic.Int64
	for round := 0; round < 5; round++ {
		pool.Run(200, func(start, end, _ int) {
			total.Add(int64(end - start))
		})
	}
	if got := total.Load(); got != 1000 {
		t.Errorf("processed %d items, want 1000", got)
	}
}

func TestNewWorkerPoolDefaults(t *testing.T) {
	if NewWorkerPool(0).Workers() < 1 {
		t.Error("default pool has no workers")
	}
}
