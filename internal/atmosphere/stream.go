package atmosphere

import (
	"sync"
	"time"

	"github.com/quietloop/ambientd/internal/player"
)

// fadeTickInterval sets the fade update rate; spec §4.2 requires at least
// 10 Hz so a reported per-stream volume is observed "strictly decreasing"
// well before the stream stops.
const fadeTickInterval = 50 * time.Millisecond

// stream is one tracked URL's pipeline state: New (not yet in this file,
// see Engine.Start) -> Downloading -> Playing -> Stopped, or Playing ->
// Fading -> Stopped. The volume, handle and duration fields are guarded by
// mu; generation is read and written under the Engine's mu.
type stream struct {
	url        string
	generation uint64

	mu          sync.Mutex
	volume      int
	hasHandle   bool
	handle      player.Handle
	maxDuration *time.Duration
	fade        *time.Duration

	cancel   chan struct{}
	stopOnce sync.Once
}

func newStream(url string, volume int, generation uint64, maxDuration, fadeDuration *time.Duration) *stream {
	return &stream{
		url:         url,
		generation:  generation,
		volume:      volume,
		maxDuration: maxDuration,
		fade:        fadeDuration,
		cancel:      make(chan struct{}),
	}
}

func (s *stream) volumeSnapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *stream) setVolume(p player.Player, volume int) {
	s.mu.Lock()
	s.volume = volume
	hasHandle := s.hasHandle
	handle := s.handle
	s.mu.Unlock()
	if hasHandle {
		_ = p.SetVolume(handle, volume)
	}
}

// onSpawned records the live handle and arms the duration/fade timers per
// the four cases of spec §4.2. onExpire is invoked exactly once, from a
// timer goroutine, when the stream naturally runs its course (never when
// Stop/StopAll/forget is called externally).
func (s *stream) onSpawned(p player.Player, handle player.Handle, onExpire func()) {
	s.mu.Lock()
	s.hasHandle = true
	s.handle = handle
	maxDuration := s.maxDuration
	fade := s.fade
	s.mu.Unlock()

	switch {
	case maxDuration == nil && fade == nil:
		// Loop indefinitely; no timer.
	case maxDuration != nil && fade == nil:
		go s.runHardStop(p, *maxDuration, onExpire)
	case maxDuration == nil && fade != nil:
		go s.runFade(p, *fade, onExpire)
	default:
		fd := *fade
		if fd > *maxDuration {
			fd = *maxDuration
		}
		delay := *maxDuration - fd
		go s.runDelayedFade(p, delay, fd, onExpire)
	}
}

func (s *stream) runHardStop(p player.Player, after time.Duration, onExpire func()) {
	select {
	case <-time.After(after):
		s.stopLocal(p)
		onExpire()
	case <-s.cancel:
	}
}

func (s *stream) runDelayedFade(p player.Player, delay, fadeDuration time.Duration, onExpire func()) {
	select {
	case <-time.After(delay):
		s.runFade(p, fadeDuration, onExpire)
	case <-s.cancel:
	}
}

// runFade linearly ramps the stream's reported volume to zero over
// fadeDuration, updating at fadeTickInterval, then stops the stream.
func (s *stream) runFade(p player.Player, fadeDuration time.Duration, onExpire func()) {
	if fadeDuration <= 0 {
		s.stopLocal(p)
		onExpire()
		return
	}

	ticker := time.NewTicker(fadeTickInterval)
	defer ticker.Stop()

	start := s.volumeSnapshot()
	if start <= 0 {
		s.stopLocal(p)
		onExpire()
		return
	}
	ticks := int(fadeDuration / fadeTickInterval)
	if ticks < 1 {
		ticks = 1
	}

	for i := 1; i <= ticks; i++ {
		select {
		case <-ticker.C:
			remaining := ticks - i
			newVolume := start * remaining / ticks
			if newVolume < 0 {
				newVolume = 0
			}
			s.mu.Lock()
			s.volume = newVolume
			handle := s.handle
			hasHandle := s.hasHandle
			s.mu.Unlock()
			if hasHandle {
				_ = p.SetVolume(handle, newVolume)
			}
		case <-s.cancel:
			return
		}
	}
	s.stopLocal(p)
	onExpire()
}

// stopLocal kills the live handle without touching the engine's stream
// table; callers either hold no further claim on the record (the timer
// path, which still calls onExpire to let the engine forget it) or have
// already removed it (Engine.Stop/forget).
func (s *stream) stopLocal(p player.Player) {
	s.mu.Lock()
	hasHandle := s.hasHandle
	handle := s.handle
	s.hasHandle = false
	s.mu.Unlock()
	if hasHandle {
		p.Kill(handle)
	}
}

// cancelTimers stops any pending duration/fade goroutine without killing
// the handle; used by StopAll, which kills every tracked handle in one
// batched KillAllWithTag call instead.
func (s *stream) cancelTimers() {
	s.stopOnce.Do(func() { close(s.cancel) })
}

// stop is the external-cancellation path (Stop, forget-on-download-failure
// or forget-on-spawn-failure): cancel any timer and kill the handle if one
// exists.
func (s *stream) stop(p player.Player) {
	s.cancelTimers()
	s.stopLocal(p)
}
