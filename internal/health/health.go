// Package health polls the two optional subsystems spec §4.1 allows to be
// absent — network lamps and the Music Client's credentials — and feeds
// their availability into the Orchestrator's published snapshot.
//
// An immediate first check, a ticker for subsequent ones, and a
// changed-callback fired only on transition, not on every tick.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/quietloop/ambientd/internal/lights"
	"github.com/quietloop/ambientd/internal/musicclient"
)

// pollInterval matches spec §8's "availability downgrades are observable
// within one poll interval" property; short enough that a dropped lamp or
// revoked credential shows up quickly without hammering either
// collaborator.
const pollInterval = 15 * time.Second

// Checker periodically polls lights.Engine.HasFixtures and
// musicclient.Client.IsAvailable, invoking onChange only when either
// flag's value differs from its last-observed value.
type Checker struct {
	lights *lights.Engine
	music  musicclient.Client

	onChange func(lampsAvailable, musicAvailable bool)
}

// New returns a Checker. Call Run to start polling; Run blocks until ctx
// is cancelled.
func New(lightsEngine *lights.Engine, music musicclient.Client, onChange func(lampsAvailable, musicAvailable bool)) *Checker {
	return &Checker{lights: lightsEngine, music: music, onChange: onChange}
}

// Run polls immediately, then every pollInterval, until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	var lastLamps, lastMusic bool
	first := true

	check := func() {
		lamps := c.lights.HasFixtures()
		music := c.music.IsAvailable()
		if first || lamps != lastLamps || music != lastMusic {
			first = false
			lastLamps, lastMusic = lamps, music
			slog.Info("health: availability", "lamps_available", lamps, "music_available", music)
			if c.onChange != nil {
				c.onChange(lamps, music)
			}
		}
	}

	check()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
