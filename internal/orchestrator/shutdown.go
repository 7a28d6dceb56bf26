package orchestrator

import (
	"context"

	"github.com/quietloop/ambientd/internal/atmosphere"
)

// Shutdown runs the terminal resource-cleanup sequence of spec §4.1:
// stop_atmosphere, stop the one-shot Player process if any, set_safe on
// the Lights Engine, pause the Music Client. Every Player subprocess the
// core ever spawned is terminated before this returns.
func (o *Orchestrator) Shutdown() {
	o.atmosphere.StopAll()

	o.mu.Lock()
	hadOneShot := o.hasOneShot
	handle := o.oneShotHandle
	o.hasOneShot = false
	o.mu.Unlock()
	if hadOneShot {
		o.player.Kill(handle)
	}
	o.player.KillAllWithTag(oneShotTag)
	o.player.KillAllWithTag(atmosphere.PlayerTag)

	o.lights.SetSafe()

	ctx, cancel := context.WithTimeout(context.Background(), musicOpTimeout)
	defer cancel()
	_ = o.music.Pause(ctx)
}
