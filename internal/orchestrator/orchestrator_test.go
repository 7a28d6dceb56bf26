package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/atmosphere"
	"github.com/quietloop/ambientd/internal/config"
	"github.com/quietloop/ambientd/internal/downloadqueue"
	"github.com/quietloop/ambientd/internal/events"
	"github.com/quietloop/ambientd/internal/lights"
	"github.com/quietloop/ambientd/internal/musicclient"
	"github.com/quietloop/ambientd/internal/orchestrator"
	"github.com/quietloop/ambientd/internal/player"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	return []byte("audio:" + url), "cc0", nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

type harness struct {
	orch  *orchestrator.Orchestrator
	store *config.Store
	pl    *player.MockPlayer
	music *musicclient.MockClient
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "environments"), "tavern.yaml", `
name: Tavern
category: social
sound:
  file: /sounds/welcome.ogg
  volume: 70
  loop: false
atmosphere:
  - url: https://example/crowd.ogg
    volume: 40
    name: crowd murmur
lights:
  cycletime: 0.05
  groups:
    backdrop:
      kind: rgb
      base: [200, 120, 40]
      brightness: {min: 50, max: 50}
`)
	store, err := config.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	q, err := downloadqueue.New(t.TempDir(), stubFetcher{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(q.Close)

	pl := player.NewMockPlayer()
	atmosphereEngine := atmosphere.New(pl, q)

	lightsEngine, err := lights.New(lights.Topology{
		"backdrop": {{Address: "127.0.0.1:38899"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = lightsEngine.Close() })

	music := musicclient.NewMockClient(true)
	bus := events.NewBus()

	orch := orchestrator.New(store, atmosphereEngine, lightsEngine, q, pl, music, bus)
	return harness{orch: orch, store: store, pl: pl, music: music}
}

func TestActivate_FullFanOut(t *testing.T) {
	h := newHarness(t)

	snapshot, err := h.orch.Activate("Tavern", nil)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.ActiveLightsName == nil || *snapshot.ActiveLightsName != "Tavern" {
		t.Fatalf("expected active_lights_name Tavern, got %+v", snapshot.ActiveLightsName)
	}

	waitFor(t, 2*time.Second, func() bool { return h.pl.LiveCount() == 2 })
	if snap := h.orch.Snapshot(); len(snap.ActiveAtmosphereURLs) != 1 {
		t.Fatalf("expected 1 atmosphere stream, got %+v", snap.ActiveAtmosphereURLs)
	}
}

func TestActivate_UnknownEnvironmentReturnsNotFound(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Activate("Nope", nil); err == nil {
		t.Fatal("expected NotFound error")
	}
}

func TestToggleLoop_StartsThenStops(t *testing.T) {
	h := newHarness(t)

	running, _, err := h.orch.ToggleLoop("https://example/rain.ogg")
	if err != nil {
		t.Fatal(err)
	}
	if !running {
		t.Fatal("expected running=true on first toggle")
	}
	waitFor(t, time.Second, func() bool { return h.pl.LiveCount() == 1 })

	running, _, err = h.orch.ToggleLoop("https://example/rain.ogg")
	if err != nil {
		t.Fatal(err)
	}
	if running {
		t.Fatal("expected running=false on second toggle")
	}
	if h.pl.LiveCount() != 0 {
		t.Fatalf("expected stream stopped, got %d live", h.pl.LiveCount())
	}
}

func TestSetVolume_RejectsOutOfRange(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.SetVolume("https://example/rain.ogg", 0); err == nil {
		t.Fatal("expected BAD_REQUEST for volume 0")
	}
	if _, err := h.orch.SetVolume("https://example/rain.ogg", 101); err == nil {
		t.Fatal("expected BAD_REQUEST for volume 101")
	}
}

func TestStopAtmosphere_TearsDownAndPausesMusic(t *testing.T) {
	h := newHarness(t)
	h.orch.ToggleLoop("https://example/rain.ogg")
	waitFor(t, time.Second, func() bool { return h.pl.LiveCount() == 1 })

	count, _, err := h.orch.StopAtmosphere()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stream torn down, got %d", count)
	}
	waitFor(t, time.Second, func() bool { return h.music.PauseCalls() == 1 })
}

func TestTogglePauseAllSounds_PausesThenResumesLivePlayer(t *testing.T) {
	h := newHarness(t)
	h.orch.ToggleLoop("https://example/rain.ogg")
	waitFor(t, time.Second, func() bool { return h.pl.LiveCount() == 1 })

	paused, _, err := h.orch.TogglePauseAllSounds()
	if err != nil {
		t.Fatal(err)
	}
	if !paused {
		t.Fatal("expected paused=true")
	}
	waitFor(t, time.Second, func() bool { return h.pl.IsPaused(1) })

	paused, _, err = h.orch.TogglePauseAllSounds()
	if err != nil {
		t.Fatal(err)
	}
	if paused {
		t.Fatal("expected paused=false")
	}
	if h.pl.IsPaused(1) {
		t.Fatal("expected stream resumed")
	}
}

func TestStopLights_ClearsActiveName(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Activate("Tavern", nil); err != nil {
		t.Fatal(err)
	}

	snapshot, err := h.orch.StopLights()
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.ActiveLightsName != nil {
		t.Fatalf("expected active_lights_name cleared, got %v", *snapshot.ActiveLightsName)
	}
}

func TestSearch_MatchesByCategory(t *testing.T) {
	h := newHarness(t)
	results := h.orch.Search("social")
	if len(results) != 1 || results[0].Name != "Tavern" {
		t.Fatalf("expected Tavern match, got %+v", results)
	}
}

func TestShutdown_KillsEveryPlayerProcess(t *testing.T) {
	h := newHarness(t)
	h.orch.ToggleLoop("https://example/rain.ogg")
	waitFor(t, time.Second, func() bool { return h.pl.LiveCount() == 1 })

	h.orch.Shutdown()
	if h.pl.LiveCount() != 0 {
		t.Fatalf("expected all player processes killed, got %d live", h.pl.LiveCount())
	}
}
