package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://www.amazon.co.jp/dp/B0TEST0001")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://www.amazon.co.jp/dp/B0TEST0001")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if !s.Contains("https://www.amazon.co.jp/dp/B0TEST0001") {
		t.Error("Contains should report the added URL")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://www.amazon.co.jp/dp/B0SAME0000"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var running, peak int64

	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	// token scheduling jitter
	const slack = 15 * time.Millisecond
	min := time.Duration(rateLimitMs)*time.Millisecond - slack
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolSkipsJobsAfterCancel(t *testing.T) {
	pool := NewWorkerPool(1, 1000)
	ctx, cancel := context.WithCancel(context.Background())

	var ran int64
	// first job consumes the only token
	pool.SubmitContext(ctx, func(context.Context) { atomic.AddInt64(&ran, 1) })
	pool.Wait()

	cancel()
	pool.SubmitContext(ctx, func(context.Context) { atomic.AddInt64(&ran, 1) })
	pool.Wait()

	if ran != 1 {
		t.Errorf("jobs run: got %d, want 1", ran)
	}
}
