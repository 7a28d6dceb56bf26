package downloadqueue_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/downloadqueue"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	delay   time.Duration
	failURL string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if url == f.failURL {
		return nil, "", fmt.Errorf("simulated failure")
	}
	return []byte("audio-bytes:" + url), "cc0", nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestEnqueue_CachedShortCircuitsSynchronously(t *testing.T) {
	fetcher := newFakeFetcher()
	q, err := downloadqueue.New(t.TempDir(), fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	var got string
	done := make(chan struct{})
	status := q.Enqueue("https://example/a.ogg", func(path string, err error) {
		got = path
		close(done)
	})
	if status != downloadqueue.Queued {
		t.Fatalf("expected Queued, got %v", status)
	}
	<-done
	if got == "" {
		t.Fatal("expected a cached path")
	}

	// Second enqueue for the same URL must be synchronous and Cached.
	var got2 string
	status2 := q.Enqueue("https://example/a.ogg", func(path string, err error) {
		got2 = path
	})
	if status2 != downloadqueue.Cached {
		t.Fatalf("expected Cached on second enqueue, got %v", status2)
	}
	if got2 != got {
		t.Fatalf("expected same cached path, got %q vs %q", got2, got)
	}
	if fetcher.callCount("https://example/a.ogg") != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.callCount("https://example/a.ogg"))
	}
}

func TestEnqueue_DedupsConcurrentInFlight(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 50 * time.Millisecond
	q, err := downloadqueue.New(t.TempDir(), fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	var completions int32
	const n = 10
	for i := 0; i < n; i++ {
		q.Enqueue("https://example/b.ogg", func(path string, err error) {
			atomic.AddInt32(&completions, 1)
		})
	}

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&completions) == n })
	if fetcher.callCount("https://example/b.ogg") != 1 {
		t.Fatalf("expected exactly one in-flight fetch for concurrent enqueues, got %d", fetcher.callCount("https://example/b.ogg"))
	}
}

func TestEnqueue_FailurePropagatesAndAllowsRetry(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failURL = "https://example/bad.ogg"
	q, err := downloadqueue.New(t.TempDir(), fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	var gotErr error
	done := make(chan struct{})
	q.Enqueue(fetcher.failURL, func(path string, err error) {
		gotErr = err
		close(done)
	})
	<-done
	if gotErr == nil {
		t.Fatal("expected error")
	}
	if q.IsCached(fetcher.failURL) {
		t.Fatal("failed download must not be cached")
	}

	// No negative caching: a later enqueue creates a fresh record.
	fetcher.failURL = "" // let it succeed this time
	done2 := make(chan struct{})
	var path2 string
	q.Enqueue("https://example/bad.ogg", func(path string, err error) {
		path2 = path
		close(done2)
	})
	<-done2
	if path2 == "" {
		t.Fatal("expected retry to succeed")
	}
}

func TestPendingCount(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 100 * time.Millisecond
	q, err := downloadqueue.New(t.TempDir(), fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	q.Enqueue("https://example/c.ogg", nil)
	waitFor(t, time.Second, func() bool { return q.PendingCount() == 1 })
	waitFor(t, 2*time.Second, func() bool { return q.PendingCount() == 0 })
}

func TestClearCache_RefusesWhileInFlightUnlessForced(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 200 * time.Millisecond
	q, err := downloadqueue.New(t.TempDir(), fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	q.Enqueue("https://example/d.ogg", nil)
	waitFor(t, time.Second, func() bool { return q.PendingCount() == 1 })

	if _, err := q.ClearCache(false); err == nil {
		t.Fatal("expected ClearCache to refuse while a download is in flight")
	}
	if _, err := q.ClearCache(true); err != nil {
		t.Fatalf("expected forced ClearCache to succeed, got %v", err)
	}
}
