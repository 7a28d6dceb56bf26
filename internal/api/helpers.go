// Package api implements the HTTP control-plane surface of spec §6.5: a
// small REST API over the Orchestrator's operations plus an SSE stream of
// snapshots.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quietloop/ambientd/internal/models"
)

// Handlers holds the dependencies every HTTP handler needs.
type Handlers struct {
	orch   Controller
	events EventBus
}

// Controller is the subset of Orchestrator operations the HTTP surface
// drives. Kept as an interface so handlers can be tested against a fake.
type Controller interface {
	Activate(name string, timeOverride *models.TimeOfDay) (models.Snapshot, error)
	ToggleLoop(url string) (bool, models.Snapshot, error)
	SetVolume(url string, volume int) (models.Snapshot, error)
	StopLights() (models.Snapshot, error)
	StopAtmosphere() (int, models.Snapshot, error)
	TogglePauseAllSounds() (bool, models.Snapshot, error)
	SetTimeOfDay(t models.TimeOfDay) (models.Snapshot, error)
	Snapshot() models.Snapshot
	AvailableTimes(name string) ([]models.TimeOfDay, bool, error)
	Search(query string) []*models.EnvironmentDescriptor
}

// EventBus is the interface for subscribing to snapshot updates.
type EventBus interface {
	Subscribe(id string) <-chan models.Snapshot
	Unsubscribe(id string)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

func nameParam(r *http.Request) string {
	return chi.URLParam(r, "name")
}

func decodeJSON(r *http.Request, v interface{}) *models.AppError {
	if r.Body == nil {
		return models.ErrBadRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}
