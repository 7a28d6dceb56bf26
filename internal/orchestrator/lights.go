package orchestrator

import "github.com/quietloop/ambientd/internal/models"

// StopLights hot-swaps to a safe terminal program (all groups off) and
// clears active_lights_name.
func (o *Orchestrator) StopLights() (models.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lights.Install(models.AllOffProgram())
	o.state.ActiveLightsName = ""
	return o.publishLocked(), nil
}
