package models

// OrchestratorState is the mutable state owned by the Orchestrator, guarded
// by its single mutex (spec §3, §5). It is never exposed directly — callers
// only ever see a Snapshot, built from a consistent copy of this struct.
type OrchestratorState struct {
	ActiveLightsName   string
	ActiveOneShotName  string
	ActiveAtmosphere   map[string]struct{} // set of URL
	AtmosphereVolumes  map[string]int      // url -> volume, survives pause
	AtmosphereNames    map[string]string   // url -> display name
	CurrentTime        TimeOfDay
	PendingDownloads   int
	IsDownloading      bool
	IsSoundsPaused     bool
	ConfigVersion      int
	LampsAvailable     bool
	MusicAvailable     bool
}

// NewOrchestratorState returns a zero-value state with CurrentTime defaulted
// to Daytime, the identity variant.
func NewOrchestratorState() OrchestratorState {
	return OrchestratorState{
		ActiveAtmosphere:  make(map[string]struct{}),
		AtmosphereVolumes: make(map[string]int),
		AtmosphereNames:   make(map[string]string),
		CurrentTime:       Daytime,
	}
}

// Snapshot is the externally-published, internally-consistent view of
// orchestrator state (spec §6). It is a value type — copying it never
// aliases the orchestrator's internal maps.
type Snapshot struct {
	ActiveLightsName             *string         `json:"active_lights_name"`
	ActiveOneShotName            *string         `json:"active_one_shot_name"`
	ActiveAtmosphereURLs         []string        `json:"active_atmosphere_urls"`
	ActiveAtmosphereDisplayNames []string        `json:"active_atmosphere_display_names"`
	AtmosphereVolumes            map[string]int  `json:"atmosphere_volumes"`
	CurrentTime                  TimeOfDay       `json:"current_time"`
	LampsAvailable               bool            `json:"lamps_available"`
	MusicAvailable               bool            `json:"music_available"`
	IsDownloading                bool            `json:"is_downloading"`
	PendingDownloads             int             `json:"pending_downloads"`
	AvailableTimes               []TimeOfDay     `json:"available_times"`
	IsSoundsPaused                bool           `json:"is_sounds_paused"`
	ConfigVersion                 int            `json:"config_version"`
}

// ToSnapshot builds the publishable Snapshot from a copy of the
// orchestrator's internal state plus the available-times list for whatever
// environment is currently driving the lights.
func (s OrchestratorState) ToSnapshot(availableTimes []TimeOfDay) Snapshot {
	urls := make([]string, 0, len(s.ActiveAtmosphere))
	names := make([]string, 0, len(s.ActiveAtmosphere))
	for url := range s.ActiveAtmosphere {
		urls = append(urls, url)
		if n, ok := s.AtmosphereNames[url]; ok && n != "" {
			names = append(names, n)
		} else {
			names = append(names, url)
		}
	}
	volumes := make(map[string]int, len(s.AtmosphereVolumes))
	for k, v := range s.AtmosphereVolumes {
		volumes[k] = v
	}

	var lightsName, oneShotName *string
	if s.ActiveLightsName != "" {
		v := s.ActiveLightsName
		lightsName = &v
	}
	if s.ActiveOneShotName != "" {
		v := s.ActiveOneShotName
		oneShotName = &v
	}

	return Snapshot{
		ActiveLightsName:             lightsName,
		ActiveOneShotName:            oneShotName,
		ActiveAtmosphereURLs:         urls,
		ActiveAtmosphereDisplayNames: names,
		AtmosphereVolumes:            volumes,
		CurrentTime:                  s.CurrentTime,
		LampsAvailable:               s.LampsAvailable,
		MusicAvailable:               s.MusicAvailable,
		IsDownloading:                s.IsDownloading,
		PendingDownloads:             s.PendingDownloads,
		AvailableTimes:               availableTimes,
		IsSoundsPaused:               s.IsSoundsPaused,
		ConfigVersion:                s.ConfigVersion,
	}
}
