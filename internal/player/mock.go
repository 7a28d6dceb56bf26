package player

import (
	"context"
	"sync"
)

// MockPlayer is an in-memory Player double for tests — real subprocesses
// are never spawned in unit tests.
type MockPlayer struct {
	mu    sync.Mutex
	next  uint64
	live  map[Handle]*mockStream

	// FailSpawn, if set, makes every PlayOneShot/PlayLoop call fail.
	FailSpawn error
}

type mockStream struct {
	path   string
	volume int
	tag    string
	loop   bool
	paused bool
}

func NewMockPlayer() *MockPlayer {
	return &MockPlayer{live: make(map[Handle]*mockStream)}
}

var _ Player = (*MockPlayer)(nil)

func (m *MockPlayer) spawn(path string, volume int, tag string, loop bool) (Handle, error) {
	if m.FailSpawn != nil {
		return 0, m.FailSpawn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	h := Handle(m.next)
	m.live[h] = &mockStream{path: path, volume: volume, tag: tag, loop: loop}
	return h, nil
}

func (m *MockPlayer) PlayOneShot(_ context.Context, path string, volume int, tag string) (Handle, error) {
	return m.spawn(path, volume, tag, false)
}

func (m *MockPlayer) PlayLoop(_ context.Context, path string, volume int, tag string) (Handle, error) {
	return m.spawn(path, volume, tag, true)
}

func (m *MockPlayer) SetVolume(h Handle, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[h]
	if !ok {
		return ErrUnknownHandle
	}
	s.volume = volume
	return nil
}

func (m *MockPlayer) Pause(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[h]
	if !ok {
		return ErrUnknownHandle
	}
	s.paused = true
	return nil
}

func (m *MockPlayer) Resume(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[h]
	if !ok {
		return ErrUnknownHandle
	}
	s.paused = false
	return nil
}

func (m *MockPlayer) Kill(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, h)
}

func (m *MockPlayer) KillAllWithTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, s := range m.live {
		if s.tag == tag {
			delete(m.live, h)
		}
	}
}

func (m *MockPlayer) PauseAllWithTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.live {
		if s.tag == tag {
			s.paused = true
		}
	}
}

func (m *MockPlayer) ResumeAllWithTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.live {
		if s.tag == tag {
			s.paused = false
		}
	}
}

// IsLive reports whether h refers to a live stream, for test assertions.
func (m *MockPlayer) IsLive(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[h]
	return ok
}

// VolumeOf returns the last volume set for h, for test assertions.
func (m *MockPlayer) VolumeOf(h Handle) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[h]
	if !ok {
		return 0, false
	}
	return s.volume, true
}

// IsPaused reports whether h is currently paused, for test assertions.
func (m *MockPlayer) IsPaused(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[h]
	return ok && s.paused
}

// LiveCount returns the number of currently live streams.
func (m *MockPlayer) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
