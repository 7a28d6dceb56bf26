package health_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/health"
	"github.com/quietloop/ambientd/internal/lights"
	"github.com/quietloop/ambientd/internal/musicclient"
)

func TestChecker_FiresOnceImmediately(t *testing.T) {
	emptyTopology, err := lights.New(lights.Topology{})
	if err != nil {
		t.Fatal(err)
	}
	defer emptyTopology.Close()

	music := musicclient.NewMockClient(true)

	var mu sync.Mutex
	var calls []bool
	c := health.New(emptyTopology, music, func(lamps, musicAvail bool) {
		mu.Lock()
		calls = append(calls, musicAvail)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	defer cancel()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	n := len(calls)
	mu.Unlock()
	if n != 1 {
		t.Fatalf("expected exactly 1 call (immediate check), got %d", n)
	}
}
