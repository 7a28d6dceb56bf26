// Package orchestrator implements the Orchestrator of spec §4.1: the
// serialization and transition authority over the Player, Music Client,
// Atmosphere Engine, and Lights Engine. It owns the environment-selection
// state and publishes the snapshot.
//
// The apply(fn) locked-mutation closure serves the plain state updates
// (config reload, availability); the command operations take mu
// themselves, and Activate's phase B explicitly releases and re-acquires
// it around the download wait (activate.go).
package orchestrator

import (
	"sync"

	"github.com/quietloop/ambientd/internal/atmosphere"
	"github.com/quietloop/ambientd/internal/config"
	"github.com/quietloop/ambientd/internal/downloadqueue"
	"github.com/quietloop/ambientd/internal/events"
	"github.com/quietloop/ambientd/internal/lights"
	"github.com/quietloop/ambientd/internal/models"
	"github.com/quietloop/ambientd/internal/musicclient"
	"github.com/quietloop/ambientd/internal/player"
)

// oneShotTag and atmosphere.PlayerTag are the two Player tags spec §6
// requires to map to distinct OS-level stream identities.
const oneShotTag = "ONESHOT"

// Orchestrator is the single source of truth for environment selection.
// Every exported operation acquires mu briefly; no network I/O, subprocess
// spawn, or sleep happens while it is held (spec §5).
type Orchestrator struct {
	mu    sync.Mutex
	state models.OrchestratorState

	hasOneShot   bool
	oneShotHandle player.Handle

	store      *config.Store
	atmosphere *atmosphere.Engine
	lights     *lights.Engine
	queue      *downloadqueue.Queue
	player     player.Player
	music      musicclient.Client
	bus        *events.Bus
}

// New wires an Orchestrator over its collaborators. store's reload
// callback is registered so a hot-reloaded descriptor set bumps
// config_version in the snapshot.
func New(store *config.Store, atmosphereEngine *atmosphere.Engine, lightsEngine *lights.Engine, queue *downloadqueue.Queue, p player.Player, music musicclient.Client, bus *events.Bus) *Orchestrator {
	o := &Orchestrator{
		state:      models.NewOrchestratorState(),
		store:      store,
		atmosphere: atmosphereEngine,
		lights:     lightsEngine,
		queue:      queue,
		player:     p,
		music:      music,
		bus:        bus,
	}
	o.state.LampsAvailable = lightsEngine.HasFixtures()
	o.state.MusicAvailable = music.IsAvailable()
	store.OnReload(func(version int) {
		o.apply(func(s *models.OrchestratorState) error {
			s.ConfigVersion = version
			return nil
		})
	})
	return o
}

// apply is the core mutation primitive: acquire the lock, let fn mutate
// the state fields directly (no DeepCopy step needed — maps are owned
// exclusively by the Orchestrator and never escape except via
// ToSnapshot's defensive copy), publish the resulting snapshot, and
// return it.
func (o *Orchestrator) apply(fn func(*models.OrchestratorState) error) (models.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := fn(&o.state); err != nil {
		return models.Snapshot{}, err
	}
	return o.publishLocked(), nil
}

// publishLocked must be called with mu held. It builds and broadcasts the
// current snapshot.
func (o *Orchestrator) publishLocked() models.Snapshot {
	var availableTimes []models.TimeOfDay
	if o.state.ActiveLightsName != "" {
		if d, err := o.store.Get(o.state.ActiveLightsName); err == nil {
			availableTimes, _ = d.AvailableTimes()
		}
	}
	snapshot := o.state.ToSnapshot(availableTimes)
	o.bus.Publish(snapshot)
	return snapshot
}

// Snapshot returns a consistent copy of the publishable state (spec
// §4.1).
func (o *Orchestrator) Snapshot() models.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	var availableTimes []models.TimeOfDay
	if o.state.ActiveLightsName != "" {
		if d, err := o.store.Get(o.state.ActiveLightsName); err == nil {
			availableTimes, _ = d.AvailableTimes()
		}
	}
	return o.state.ToSnapshot(availableTimes)
}

// AvailableTimes is a query-only passthrough to the Config Store.
func (o *Orchestrator) AvailableTimes(name string) ([]models.TimeOfDay, bool, error) {
	return o.store.AvailableTimes(name)
}

// Search is a pure query-only passthrough to the Config Store.
func (o *Orchestrator) Search(query string) []*models.EnvironmentDescriptor {
	return o.store.Search(query)
}
