package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the control-plane HTTP router of spec §6.5.
func NewRouter(orch Controller, bus EventBus) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{orch: orch, events: bus}

	r.Post("/environments/{name}/activate", h.activate)
	r.Get("/environments/{name}/available-times", h.getAvailableTimes)

	r.Post("/atmosphere/toggle", h.toggleAtmosphere)
	r.Post("/atmosphere/volume", h.setAtmosphereVolume)
	r.Post("/atmosphere/stop", h.stopAtmosphere)

	r.Post("/lights/stop", h.stopLights)

	r.Post("/sounds/toggle-pause", h.togglePauseAllSounds)

	r.Post("/time", h.setTimeOfDay)

	r.Get("/snapshot", h.getSnapshot)
	r.Get("/search", h.search)
	r.Get("/events", h.streamEvents)

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
