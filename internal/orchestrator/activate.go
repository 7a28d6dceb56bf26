package orchestrator

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/quietloop/ambientd/internal/models"
	"github.com/quietloop/ambientd/internal/player"
)

// pollInterval and pollCeiling govern phase B's wait on the Download
// Queue (spec §4.1: "poll is_cached every ≈300ms up to a 60s ceiling").
const (
	pollInterval = 300 * time.Millisecond
	pollCeiling  = 60 * time.Second

	soundConfPrefix = "sound_conf:"
)

// Activate runs the three-phase activation algorithm of spec §4.1. If
// timeOverride is nil, the Orchestrator's current_time is used.
func (o *Orchestrator) Activate(name string, timeOverride *models.TimeOfDay) (models.Snapshot, error) {
	// Phase A (locked): resolve, merge, compute uncached URLs, bump
	// generation, release the lock.
	o.mu.Lock()
	base, err := o.store.Get(name)
	if err != nil {
		o.mu.Unlock()
		return models.Snapshot{}, err
	}
	t := o.state.CurrentTime
	if timeOverride != nil {
		t = *timeOverride
	}
	descriptor := base.ResolvedAt(t)

	var uncached []string
	for _, m := range descriptor.Atmosphere {
		if !o.queue.IsCached(m.URL) {
			uncached = append(uncached, m.URL)
		}
	}
	generation := o.atmosphere.BumpGeneration()
	o.mu.Unlock()

	// Phase B (unlocked): enqueue uncached URLs and poll each one up to
	// the ceiling. A URL that never caches in time is dropped silently;
	// the rest of the environment still activates.
	for _, url := range uncached {
		o.queue.Enqueue(url, nil)
	}
	waitForCacheAll(o.queue.IsCached, uncached, pollCeiling)

	// Phase C (re-locked): abandon if superseded, else commit the full
	// fan-out.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.atmosphere.Generation() != generation {
		// Abandoned: a stop_all or newer activate superseded this one while
		// phase B was waiting. Report the current (unrelated) snapshot
		// rather than an error — the request was not invalid, just moot.
		return o.publishLocked(), nil
	}

	if descriptor.Sound != nil {
		o.startSoundLocked(descriptor.Sound, name)
	}

	if descriptor.Music != nil {
		go func(uri string) {
			ctx, cancel := context.WithTimeout(context.Background(), musicOpTimeout)
			defer cancel()
			_ = o.music.PlayContext(ctx, uri)
		}(descriptor.Music.URI)
	}

	if len(descriptor.Atmosphere) > 0 {
		o.replaceAtmosphereLocked(descriptor.Atmosphere, generation)
	}

	if descriptor.Lights != nil {
		o.lights.Install(descriptor.Lights)
		o.state.ActiveLightsName = name
	}

	o.state.ConfigVersion = o.store.Version()
	return o.publishLocked(), nil
}

// waitForCacheAll polls isCached against every url in urls every
// pollInterval, returning once all are cached or once ceiling elapses —
// whichever comes first. URLs still uncached at the ceiling are simply
// left out of the eventual mix (spec §4.1: "dropped from the activation").
func waitForCacheAll(isCached func(string) bool, urls []string, ceiling time.Duration) {
	if len(urls) == 0 {
		return
	}
	deadline := time.Now().Add(ceiling)
	for {
		allCached := true
		for _, url := range urls {
			if !isCached(url) {
				allCached = false
				break
			}
		}
		if allCached || time.Now().After(deadline) {
			return
		}
		time.Sleep(pollInterval)
	}
}

// replaceAtmosphereLocked implements the layering rule: a descriptor that
// declares atmosphere stops every previously-active atmosphere stream not
// present in the new mix, then starts the new mix under generation.
// Must be called with mu held.
func (o *Orchestrator) replaceAtmosphereLocked(mix []models.MixEntry, generation uint64) {
	newURLs := make(map[string]struct{}, len(mix))
	for _, m := range mix {
		newURLs[m.URL] = struct{}{}
	}
	for url := range o.state.ActiveAtmosphere {
		if _, keep := newURLs[url]; !keep {
			o.atmosphere.Stop(url)
			delete(o.state.ActiveAtmosphere, url)
			delete(o.state.AtmosphereNames, url)
		}
	}

	for _, m := range mix {
		var maxDuration, fadeDuration *time.Duration
		if m.MaxDuration != nil {
			d := time.Duration(*m.MaxDuration * float64(time.Second))
			maxDuration = &d
		}
		if m.FadeDuration != nil {
			d := time.Duration(*m.FadeDuration * float64(time.Second))
			fadeDuration = &d
		}
		volume := m.Volume
		if v, ok := o.state.AtmosphereVolumes[m.URL]; ok {
			volume = v
		}
		o.atmosphere.Start(m.URL, volume, generation, maxDuration, fadeDuration)
		o.state.ActiveAtmosphere[m.URL] = struct{}{}
		o.state.AtmosphereVolumes[m.URL] = volume
		if m.Name != "" {
			o.state.AtmosphereNames[m.URL] = m.Name
		}
	}
}

// startSoundLocked resolves a sound_conf: indirection (if present) and
// spawns the one-shot or looping Player process. Must be called with mu
// held; the spawn itself is dispatched on its own goroutine so the lock
// is never held across subprocess I/O.
func (o *Orchestrator) startSoundLocked(s *models.Sound, environmentName string) {
	path := s.File
	volume := s.Volume
	var fade *float64

	if strings.HasPrefix(s.File, soundConfPrefix) {
		id := strings.TrimPrefix(s.File, soundConfPrefix)
		collection, err := o.store.Collection(id)
		if err != nil || len(collection.Entries) == 0 {
			return
		}
		entry := collection.Entries[rand.Intn(len(collection.Entries))]
		if entry.Path != "" {
			path = entry.Path
		} else {
			path = entry.URL
		}
		if entry.Volume > 0 {
			volume = entry.Volume
		}
		fade = entry.FadeDuration
	}

	o.state.ActiveOneShotName = environmentName

	play := o.player.PlayOneShot
	if s.Loop {
		play = o.player.PlayLoop
	}
	spawn := func(localPath string) {
		handle, err := play(context.Background(), localPath, volume, oneShotTag)
		if err != nil {
			return
		}
		o.mu.Lock()
		o.hasOneShot = true
		o.oneShotHandle = handle
		o.mu.Unlock()
		if fade != nil && *fade > 0 {
			go fadeOneShot(o.player, handle, volume, *fade)
		}
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		o.queue.Enqueue(path, func(localPath string, err error) {
			if err != nil {
				return
			}
			go spawn(localPath)
		})
		return
	}
	go spawn(path)
}

// fadeOneShot linearly ramps a one-shot handle's volume to zero over dur,
// then kills it. Best-effort: a SetVolume failure (handle already gone)
// stops the ramp early.
func fadeOneShot(p player.Player, h player.Handle, startVolume int, dur float64) {
	const tick = 50 * time.Millisecond
	steps := int(dur / tick.Seconds())
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		time.Sleep(tick)
		v := startVolume - (startVolume * i / steps)
		if err := p.SetVolume(h, v); err != nil {
			return
		}
	}
	p.Kill(h)
}
