// Command ambientd is the ambient-environment orchestrator daemon: it
// drives one-shot and looping sounds, a remote-music context, and
// network-lamp animations from a directory of YAML environment
// descriptors.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/quietloop/ambientd/internal/api"
	"github.com/quietloop/ambientd/internal/atmosphere"
	"github.com/quietloop/ambientd/internal/config"
	"github.com/quietloop/ambientd/internal/downloadqueue"
	"github.com/quietloop/ambientd/internal/events"
	"github.com/quietloop/ambientd/internal/health"
	"github.com/quietloop/ambientd/internal/lights"
	"github.com/quietloop/ambientd/internal/musicclient"
	"github.com/quietloop/ambientd/internal/orchestrator"
	"github.com/quietloop/ambientd/internal/player"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir        = flag.String("config-dir", "", "config directory (default: ~/.config/ambientd)")
		cacheDir      = flag.String("cache-dir", "", "audio cache directory (default: ~/.cache/ambientd)")
		mpvBin        = flag.String("mpv-binary", "mpv", "decoder binary for the Player collaborator")
		lampsFlag     = flag.String("lamps", "", "comma-separated group=ip:port lamp fixtures, e.g. backdrop=10.0.0.5:38899")
		spotifyID     = flag.String("spotify-client-id", "", "Spotify client ID (music client disabled if empty)")
		spotifySecret = flag.String("spotify-client-secret", "", "Spotify client secret")
		spotifyDevice = flag.String("spotify-device-id", "", "Spotify playback device ID")
		debug         = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "ambientd")
	}
	if *cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cacheDir = filepath.Join(home, ".cache", "ambientd")
	}
	if err := os.MkdirAll(*cfgDir, 0o755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := config.New(*cfgDir)
	if err != nil {
		slog.Error("config store initialization failed", "err", err)
		os.Exit(1)
	}
	watcher, err := config.Watch(store)
	if err != nil {
		slog.Error("config watcher initialization failed", "err", err)
		os.Exit(1)
	}
	defer watcher.Close()

	queue, err := downloadqueue.New(*cacheDir, downloadqueue.NewHTTPFetcher())
	if err != nil {
		slog.Error("download queue initialization failed", "err", err)
		os.Exit(1)
	}
	defer queue.Close()

	proc := player.NewProcessPlayer()
	proc.Binary = *mpvBin

	atmosphereEngine := atmosphere.New(proc, queue)

	topology := parseLampTopology(*lampsFlag)
	lightsEngine, err := lights.New(topology)
	if err != nil {
		slog.Error("lights engine initialization failed", "err", err)
		os.Exit(1)
	}
	defer lightsEngine.Close()

	var music musicclient.Client
	if *spotifyID != "" && *spotifySecret != "" {
		music = musicclient.NewSpotifyClient(*spotifyID, *spotifySecret, "https://accounts.spotify.com/api/token", *spotifyDevice)
		if err := music.Authenticate(ctx); err != nil {
			slog.Warn("music client authentication failed at startup", "err", err)
		}
	} else {
		slog.Info("no spotify credentials supplied, music client disabled")
		music = musicclient.NewMockClient(false)
	}

	bus := events.NewBus()

	orch := orchestrator.New(store, atmosphereEngine, lightsEngine, queue, proc, music, bus)

	checker := health.New(lightsEngine, music, orch.SetAvailability)
	go checker.Run(ctx)

	router := api.NewRouter(orch, bus)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE needs no write deadline
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("ambientd listening", "addr", *addr, "config", *cfgDir, "cache", *cacheDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	orch.Shutdown()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// parseLampTopology parses "group=ip:port,group=ip:port" into a
// lights.Topology. Unknown formats are logged and skipped rather than
// fatal — a malformed --lamps flag should degrade to "no fixtures",
// matching spec §4.1's "missing optional subsystems" failure semantics.
func parseLampTopology(flagValue string) lights.Topology {
	topology := make(lights.Topology)
	if flagValue == "" {
		return topology
	}
	for _, entry := range strings.Split(flagValue, ",") {
		group, addr, ok := strings.Cut(entry, "=")
		if !ok {
			slog.Warn("lamps: skipping malformed entry", "entry", entry)
			continue
		}
		topology[group] = append(topology[group], lights.Fixture{Address: addr})
	}
	return topology
}
