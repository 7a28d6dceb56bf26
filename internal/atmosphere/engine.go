// Package atmosphere implements the Atmosphere Engine of spec §4.2: zero
// or more concurrent looping audio streams, each a (URL -> cached path ->
// player process) pipeline guarded by a generation counter so that a
// download that completes after the environment has already moved on
// never starts audio for the wrong environment.
//
// A reconcile-by-desired-set loop becomes generation-guarded start/stop
// here, and an activate/deactivate split becomes the per-URL state
// machine in stream.go.
package atmosphere

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quietloop/ambientd/internal/downloadqueue"
	"github.com/quietloop/ambientd/internal/player"
)

// PlayerTag labels every subprocess this engine spawns, so they can be
// paused, resumed or terminated as a group (toggle_pause_all_sounds,
// StopAll, shutdown) without touching the one-shot sound's handle.
const PlayerTag = "atmosphere"

// Engine owns the stream table. All exported methods are safe for
// concurrent use; operations on different URLs never block each other,
// operations on the same URL serialize via that stream's own lock.
type Engine struct {
	player  player.Player
	queue   *downloadqueue.Queue

	mu         sync.Mutex
	generation uint64
	streams    map[string]*stream
}

// New returns an Engine backed by p for process control and q for
// resolving remote URLs to local paths.
func New(p player.Player, q *downloadqueue.Queue) *Engine {
	return &Engine{
		player:  p,
		queue:   q,
		streams: make(map[string]*stream),
	}
}

// Generation returns the engine's current generation counter.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// BumpGeneration increments and returns the new generation. Callers
// (typically the Orchestrator's phase A, under its own lock) use the
// returned value as the capture for a subsequent Start.
func (e *Engine) BumpGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

// Start begins (or adjusts) a stream for url under generation. If url is
// already tracked — whether from this generation or an earlier one it
// carried over from — the existing process is left running: only its
// generation and volume are updated, so a URL that survives a
// re-activation never spawns a second player for the same stream.
// Otherwise the Download Queue resolves url to a local path and, if the
// generation is still current when that completes, a player process is
// spawned.
func (e *Engine) Start(url string, volume int, generation uint64, maxDuration, fadeDuration *time.Duration) {
	e.mu.Lock()
	if s, ok := e.streams[url]; ok {
		s.generation = generation
		e.mu.Unlock()
		s.setVolume(e.player, volume)
		return
	}

	s := newStream(url, volume, generation, maxDuration, fadeDuration)
	e.streams[url] = s
	e.mu.Unlock()

	e.queue.Enqueue(url, func(path string, err error) {
		if err != nil {
			slog.Warn("atmosphere: download failed, dropping stream", "url", url, "err", err)
			e.forget(url, generation)
			return
		}
		e.spawn(s, path, generation)
	})
}

// spawn launches the player process for s once its audio has been
// resolved to a local path, subject to the generation guard.
func (e *Engine) spawn(s *stream, path string, generation uint64) {
	e.mu.Lock()
	if e.generation != generation {
		// Cancelled: a stop_all or new activation superseded this download
		// before it completed. Drop silently (spec §7, Cancelled).
		e.mu.Unlock()
		return
	}
	current, ok := e.streams[s.url]
	if !ok || current != s {
		// The record was replaced or removed (stop/new Start for this URL)
		// while the download was in flight.
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	handle, err := e.player.PlayLoop(context.Background(), path, s.volumeSnapshot(), PlayerTag)
	if err != nil {
		slog.Warn("atmosphere: player failed to spawn stream", "url", s.url, "err", err)
		e.forget(s.url, generation)
		return
	}

	e.mu.Lock()
	if e.generation != generation {
		e.mu.Unlock()
		e.player.Kill(handle)
		return
	}
	current, ok = e.streams[s.url]
	if !ok || current != s {
		e.mu.Unlock()
		e.player.Kill(handle)
		return
	}
	e.mu.Unlock()

	s.onSpawned(e.player, handle, func() { e.forget(s.url, generation) })
}

// forget removes url's record if it is still the one captured for
// generation, cleaning up any live handle and timers.
func (e *Engine) forget(url string, generation uint64) {
	e.mu.Lock()
	s, ok := e.streams[url]
	if !ok || s.generation != generation {
		e.mu.Unlock()
		return
	}
	delete(e.streams, url)
	e.mu.Unlock()
	s.stop(e.player)
}

// Stop stops url's stream immediately, with no fade.
func (e *Engine) Stop(url string) {
	e.mu.Lock()
	s, ok := e.streams[url]
	if ok {
		delete(e.streams, url)
	}
	e.mu.Unlock()
	if ok {
		s.stop(e.player)
	}
}

// StopAll increments the generation, cancels every running timer, and
// requests the Player terminate every tracked stream's subprocess. It
// returns the number of streams that were torn down.
func (e *Engine) StopAll() int {
	e.mu.Lock()
	e.generation++
	streams := e.streams
	e.streams = make(map[string]*stream)
	e.mu.Unlock()

	for _, s := range streams {
		s.cancelTimers()
	}
	e.player.KillAllWithTag(PlayerTag)
	return len(streams)
}

// SetVolume applies to a running stream via the Player's per-stream
// control. A no-op if url is not currently tracked.
func (e *Engine) SetVolume(url string, volume int) {
	e.mu.Lock()
	s, ok := e.streams[url]
	e.mu.Unlock()
	if !ok {
		return
	}
	s.setVolume(e.player, volume)
}

// IsURLActive reports whether url is currently tracked by the engine
// (downloading or playing).
func (e *Engine) IsURLActive(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.streams[url]
	return ok
}

// ActiveURLs returns every URL currently tracked, for snapshot assembly.
func (e *Engine) ActiveURLs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	urls := make([]string, 0, len(e.streams))
	for url := range e.streams {
		urls = append(urls, url)
	}
	return urls
}

// PreDownload hands url to the Download Queue without registering a
// stream, so a later Start can find it already cached.
func (e *Engine) PreDownload(url string) {
	e.queue.Enqueue(url, nil)
}
