package api

import (
	"net/http"

	"github.com/quietloop/ambientd/internal/models"
)

type activateRequest struct {
	Time *models.TimeOfDay `json:"time,omitempty"`
}

func (h *Handlers) activate(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	var req activateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Time != nil && !models.ValidTimeOfDay(*req.Time) {
		writeError(w, models.ErrBadRequest("unknown time_of_day"))
		return
	}
	snapshot, err := h.orch.Activate(name, req.Time)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type toggleLoopRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) toggleAtmosphere(w http.ResponseWriter, r *http.Request) {
	var req toggleLoopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.URL == "" {
		writeError(w, models.ErrBadRequest("url is required"))
		return
	}
	running, snapshot, err := h.orch.ToggleLoop(req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": running, "snapshot": snapshot})
}

type setVolumeRequest struct {
	URL    string `json:"url"`
	Volume int    `json:"volume"`
}

func (h *Handlers) setAtmosphereVolume(w http.ResponseWriter, r *http.Request) {
	var req setVolumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.URL == "" {
		writeError(w, models.ErrBadRequest("url is required"))
		return
	}
	snapshot, err := h.orch.SetVolume(req.URL, req.Volume)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) stopLights(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.orch.StopLights()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) stopAtmosphere(w http.ResponseWriter, r *http.Request) {
	count, snapshot, err := h.orch.StopAtmosphere()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stopped": count, "snapshot": snapshot})
}

func (h *Handlers) togglePauseAllSounds(w http.ResponseWriter, r *http.Request) {
	paused, snapshot, err := h.orch.TogglePauseAllSounds()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"paused": paused, "snapshot": snapshot})
}

type setTimeRequest struct {
	Time models.TimeOfDay `json:"time"`
}

func (h *Handlers) setTimeOfDay(w http.ResponseWriter, r *http.Request) {
	var req setTimeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snapshot, err := h.orch.SetTimeOfDay(req.Time)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Snapshot())
}

func (h *Handlers) getAvailableTimes(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	times, hasVariants, err := h.orch.AvailableTimes(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"times": times, "has_variants": hasVariants})
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := h.orch.Search(query)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
