// Package downloadqueue implements the Download Queue of spec §4.3: a
// single-worker, deduplicating, content-addressed cache for remote audio
// URLs with at-most-once-in-flight-per-URL semantics.
package downloadqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DownloadStatus is the result of Enqueue.
type DownloadStatus int

const (
	// Cached means the callback (if any) was already invoked synchronously.
	Cached DownloadStatus = iota
	// Queued means a new record was created at the queue tail.
	Queued
	// InProgress means the URL was already in flight; the callback was
	// attached to the existing record.
	InProgress
)

func (s DownloadStatus) String() string {
	switch s {
	case Cached:
		return "cached"
	case Queued:
		return "queued"
	case InProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

// Callback receives the resolved local path or an error. Queue invokes it
// exactly once, off the worker goroutine, in registration order alongside
// every other callback attached to the same URL.
type Callback func(path string, err error)

// Fetcher resolves a remote URL to bytes plus an optional license-class
// hint (spec §4.3's cc0/cc-by/unknown cache buckets). It is the Download
// Queue's sole external collaborator — the network fetch itself.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, licenseClass string, err error)
}

type record struct {
	mu        sync.Mutex
	url       string
	callbacks []Callback
	inFlight  bool
}

// Queue is the Download Queue. All exported methods are safe for
// concurrent use.
type Queue struct {
	cache   *Cache
	fetcher Fetcher

	mu      sync.Mutex
	records map[string]*record // url -> record, only while in flight

	flight singleflight.Group

	jobs chan string
	done chan struct{}
}

// New creates a Queue backed by cacheDir and fetcher, and starts its single
// background worker. Callers must call Close to stop the worker.
func New(cacheDir string, fetcher Fetcher) (*Queue, error) {
	cache, err := NewCache(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("downloadqueue: %w", err)
	}
	q := &Queue{
		cache:   cache,
		fetcher: fetcher,
		records: make(map[string]*record),
		jobs:    make(chan string, 256),
		done:    make(chan struct{}),
	}
	go q.worker()
	return q, nil
}

// Close stops the background worker. In-flight fetches are allowed to
// complete; no new jobs are accepted afterward.
func (q *Queue) Close() {
	close(q.jobs)
	<-q.done
}

// IsCached is a pure filesystem check against the cache directory layout.
func (q *Queue) IsCached(url string) bool {
	_, ok := q.cache.Lookup(url)
	return ok
}

// PendingCount returns the number of URLs currently in flight.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Enqueue resolves url to a local path, invoking callback when known.
// If cached, callback fires synchronously and Cached is returned. If
// already in flight, callback is attached to the existing record and
// InProgress is returned. Otherwise a new record is created and Queued is
// returned; callback fires later, from the worker, non-blockingly.
func (q *Queue) Enqueue(url string, callback Callback) DownloadStatus {
	if path, ok := q.cache.Lookup(url); ok {
		if callback != nil {
			callback(path, nil)
		}
		return Cached
	}

	q.mu.Lock()
	if rec, exists := q.records[url]; exists {
		q.mu.Unlock()
		rec.mu.Lock()
		if callback != nil {
			rec.callbacks = append(rec.callbacks, callback)
		}
		rec.mu.Unlock()
		return InProgress
	}

	rec := &record{url: url, inFlight: true}
	if callback != nil {
		rec.callbacks = []Callback{callback}
	}
	q.records[url] = rec
	q.mu.Unlock()

	select {
	case q.jobs <- url:
	default:
		// Queue buffer saturated — run the enqueue on its own goroutine so
		// Enqueue itself never blocks the caller (it must remain safe to
		// call from inside the Orchestrator's unlocked phase B).
		go func() { q.jobs <- url }()
	}
	return Queued
}

// ClearCache deletes all cached files and returns the count removed.
// The Download Queue has no notion of playback quiescence (spec §4.3); the
// force flag exists so callers that DO know (the Orchestrator) can refuse
// to call this while streams might be playing a soon-to-be-deleted file.
func (q *Queue) ClearCache(force bool) (int, error) {
	if !force {
		q.mu.Lock()
		pending := len(q.records)
		q.mu.Unlock()
		if pending > 0 {
			return 0, fmt.Errorf("downloadqueue: refusing clear_cache with %d downloads in flight (pass force=true to override)", pending)
		}
	}
	return q.cache.Clear()
}

// worker consumes q.jobs in FIFO order, one fetch at a time, per spec
// §4.3's "single background worker".
func (q *Queue) worker() {
	defer close(q.done)
	for url := range q.jobs {
		q.runOne(url)
	}
}

func (q *Queue) runOne(url string) {
	// The at-most-one-in-flight-per-URL contract is enforced by q.records
	// in Enqueue. runOne is only called from the single worker, so calls to
	// q.flight.Do never overlap and the group does not merge any fetches.
	v, err, _ := q.flight.Do(url, func() (interface{}, error) {
		data, licenseClass, err := q.fetcher.Fetch(context.Background(), url)
		if err != nil {
			return nil, err
		}
		return fetchResult{data: data, licenseClass: licenseClass}, nil
	})

	q.mu.Lock()
	rec, ok := q.records[url]
	delete(q.records, url)
	q.mu.Unlock()
	if !ok {
		return
	}

	var path string
	if err == nil {
		fr := v.(fetchResult)
		path, err = q.cache.Store(url, fr.licenseClass, fr.data)
	}

	rec.mu.Lock()
	callbacks := rec.callbacks
	rec.mu.Unlock()

	if err != nil {
		slog.Warn("downloadqueue: fetch failed", "url", url, "err", err)
	}
	if len(callbacks) == 0 {
		return
	}
	// Hand off to one goroutine that runs the callbacks in registration
	// order, so the worker itself never blocks on them (spec §4.3).
	go func() {
		for _, cb := range callbacks {
			cb(path, err)
		}
	}()
}

type fetchResult struct {
	data         []byte
	licenseClass string
}
