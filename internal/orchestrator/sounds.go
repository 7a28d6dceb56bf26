package orchestrator

import (
	"context"
	"time"

	"github.com/quietloop/ambientd/internal/atmosphere"
	"github.com/quietloop/ambientd/internal/models"
)

// musicOpTimeout bounds every fire-and-forget Music Client call so a
// stalled HTTP request can never wedge the goroutine it runs on.
const musicOpTimeout = 10 * time.Second

// ToggleLoop starts or stops a single atmosphere stream independent of
// any environment, returning the new running state.
func (o *Orchestrator) ToggleLoop(url string) (bool, models.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.atmosphere.IsURLActive(url) {
		o.atmosphere.Stop(url)
		delete(o.state.ActiveAtmosphere, url)
		delete(o.state.AtmosphereNames, url)
		return false, o.publishLocked(), nil
	}

	volume := 50
	if v, ok := o.state.AtmosphereVolumes[url]; ok {
		volume = v
	}
	o.atmosphere.Start(url, volume, o.atmosphere.Generation(), nil, nil)
	o.state.ActiveAtmosphere[url] = struct{}{}
	o.state.AtmosphereVolumes[url] = volume
	return true, o.publishLocked(), nil
}

// SetVolume applies to a running atmosphere stream and records the value
// in atmosphere_volumes so a later (re)start reuses it.
func (o *Orchestrator) SetVolume(url string, volume int) (models.Snapshot, error) {
	if volume < 1 || volume > 100 {
		return models.Snapshot{}, models.ErrBadRequest("volume must be in [1,100]")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.AtmosphereVolumes[url] = volume
	if o.atmosphere.IsURLActive(url) {
		o.atmosphere.SetVolume(url, volume)
	}
	return o.publishLocked(), nil
}

// StopAtmosphere stops all atmosphere streams and pauses the music client
// if it is playing, returning the count of streams torn down.
func (o *Orchestrator) StopAtmosphere() (int, models.Snapshot, error) {
	o.mu.Lock()
	count := o.atmosphere.StopAll()
	o.state.ActiveAtmosphere = make(map[string]struct{})
	o.state.AtmosphereNames = make(map[string]string)
	snapshot := o.publishLocked()
	o.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), musicOpTimeout)
		defer cancel()
		_ = o.music.Pause(ctx)
	}()

	return count, snapshot, nil
}

// TogglePauseAllSounds suspends or resumes every Player process owned by
// the core (one-shot and atmosphere identically), returning the new paused
// state. Suspending also pauses the music client; resuming does not
// restart music playback. Duration/fade timers of atmosphere
// streams are unaffected (spec §9: their wall-clock deadlines keep
// running through a pause).
func (o *Orchestrator) TogglePauseAllSounds() (bool, models.Snapshot, error) {
	o.mu.Lock()
	paused := !o.state.IsSoundsPaused
	o.state.IsSoundsPaused = paused
	snapshot := o.publishLocked()
	o.mu.Unlock()

	if paused {
		o.player.PauseAllWithTag(oneShotTag)
		o.player.PauseAllWithTag(atmosphere.PlayerTag)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), musicOpTimeout)
			defer cancel()
			_ = o.music.Pause(ctx)
		}()
	} else {
		o.player.ResumeAllWithTag(oneShotTag)
		o.player.ResumeAllWithTag(atmosphere.PlayerTag)
	}

	return paused, snapshot, nil
}
