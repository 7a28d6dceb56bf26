package orchestrator

import "github.com/quietloop/ambientd/internal/models"

// SetTimeOfDay records current_time. If a lights program is currently
// active and the active environment declares a variant for the new time,
// it is re-activated under the new time (spec §4.1).
func (o *Orchestrator) SetTimeOfDay(t models.TimeOfDay) (models.Snapshot, error) {
	if !models.ValidTimeOfDay(t) {
		return models.Snapshot{}, models.ErrBadRequest("unknown time_of_day")
	}

	o.mu.Lock()
	activeName := o.state.ActiveLightsName
	o.state.CurrentTime = t
	snapshot := o.publishLocked()
	o.mu.Unlock()

	if activeName == "" {
		return snapshot, nil
	}
	descriptor, err := o.store.Get(activeName)
	if err != nil {
		return snapshot, nil
	}
	if _, hasVariants := descriptor.AvailableTimes(); !hasVariants {
		return snapshot, nil
	}
	if _, ok := descriptor.TimeVariants[t]; !ok {
		return snapshot, nil
	}

	return o.Activate(activeName, &t)
}

// SetAvailability updates lamps_available/music_available from the health
// Checker's polled status and republishes the snapshot.
func (o *Orchestrator) SetAvailability(lampsAvailable, musicAvailable bool) {
	o.apply(func(s *models.OrchestratorState) error {
		s.LampsAvailable = lampsAvailable
		s.MusicAvailable = musicAvailable
		return nil
	})
}
