package musicclient

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client double for tests.
type MockClient struct {
	mu sync.Mutex

	AuthErr error
	PlayErr error
	PauseErr error

	available  bool
	playing    string
	authCalls  int
	pauseCalls int
}

func NewMockClient(available bool) *MockClient {
	return &MockClient{available: available}
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Authenticate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCalls++
	if m.AuthErr != nil {
		m.available = false
		return m.AuthErr
	}
	m.available = true
	return nil
}

func (m *MockClient) PlayContext(_ context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.playing = uri
	return nil
}

func (m *MockClient) Pause(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	if m.PauseErr != nil {
		return m.PauseErr
	}
	m.playing = ""
	return nil
}

func (m *MockClient) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Playing returns the last context URI passed to PlayContext, or "" if
// none or paused since.
func (m *MockClient) Playing() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// PauseCalls returns how many times Pause was invoked, for test assertions.
func (m *MockClient) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}
