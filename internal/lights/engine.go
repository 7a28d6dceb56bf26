package lights

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quietloop/ambientd/internal/models"
)

// Engine drives the animation loop of spec §4.4. The active program sits
// behind an atomic pointer for lock-free tick reads; Install performs a
// single swap into that cell.
type Engine struct {
	topology Topology
	conn     *net.UDPConn
	rand     *rand.Rand

	program atomic.Pointer[models.AnimationProgram]

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an idle Engine. It owns no fixtures until topology is
// supplied; HasFixtures reports whether any group has at least one.
func New(topology Topology) (*Engine, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	return &Engine{
		topology: topology,
		conn:     conn,
		rand:     rand.New(rand.NewSource(1)),
	}, nil
}

// HasFixtures reports whether the engine has any fixture to drive,
// feeding the snapshot's lamps_available flag (via internal/health).
func (e *Engine) HasFixtures() bool {
	for _, fixtures := range e.topology {
		if len(fixtures) > 0 {
			return true
		}
	}
	return false
}

// Install starts the animation loop if idle, or atomically hot-swaps the
// running program otherwise. The next tick uses the new program; there is
// no intermediate off state (spec §4.4, §8 property 3).
func (e *Engine) Install(program *models.AnimationProgram) {
	e.program.Store(program)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	go e.loop(ctx, e.done)
}

// Stop signals the animation task to exit. Fixtures keep their last
// state — there is no off-sweep.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.running = false
	e.mu.Unlock()

	cancel()
	<-done
}

// SetSafe installs a terminal warm-white program, ticks it once, then
// stops the loop. Used at process shutdown.
func (e *Engine) SetSafe() {
	safe := models.SafeProgram()
	e.program.Store(safe)
	e.tickOnce(safe)
	e.Stop()
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		program := e.program.Load()
		interval := time.Second
		if program != nil && program.CycleTime > 0 {
			interval = time.Duration(program.CycleTime * float64(time.Second))
		}

		if program != nil {
			e.tickOnce(program)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// tickOnce computes one tick's pilots in GroupNames order and fires them
// at every fixture in each group, non-blockingly. The loop goroutine and
// a caller-goroutine tick (SetSafe, before Stop joins the loop) can both
// reach this method, so the rand draw — math/rand.Rand is not safe for
// concurrent use — is serialized under mu.
func (e *Engine) tickOnce(program *models.AnimationProgram) {
	cycleTime := time.Duration(program.CycleTime * float64(time.Second))
	e.mu.Lock()
	pilots := producePilots(program, e.rand, cycleTime)
	e.mu.Unlock()
	for group, pilot := range pilots {
		for _, fixture := range e.topology[group] {
			addr, err := net.ResolveUDPAddr("udp4", fixture.Address)
			if err != nil {
				continue
			}
			sendPilot(e.conn, addr, pilot)
		}
	}
}

// Close releases the engine's UDP socket.
func (e *Engine) Close() error {
	e.Stop()
	return e.conn.Close()
}
