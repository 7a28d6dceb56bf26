// Package models defines the data structures shared across the orchestrator,
// the atmosphere engine, the download queue, and the lights engine.
package models

import "fmt"

// TimeOfDay selects which time_variants branch of a descriptor applies.
// Daytime is the identity variant — it never merges, the base descriptor
// is used as-is.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Daytime   TimeOfDay = "daytime"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// ValidTimeOfDay reports whether t is one of the four recognized values.
func ValidTimeOfDay(t TimeOfDay) bool {
	switch t {
	case Morning, Daytime, Afternoon, Evening:
		return true
	}
	return false
}

// Sound is a one-shot or looping local-file playback declaration.
type Sound struct {
	// File is either a local path or a "sound_conf:<id>" indirection token
	// resolved against a collection document at activation time (spec §6).
	File   string `yaml:"file"`
	Volume int    `yaml:"volume"`
	Loop   bool   `yaml:"loop"`
}

// Music is an opaque context URI handed to the Music Client verbatim.
type Music struct {
	URI string `yaml:"uri"`
}

// MixEntry is one atmosphere stream within an environment's mix.
type MixEntry struct {
	URL          string   `yaml:"url"`
	Volume       int      `yaml:"volume"`
	MaxDuration  *float64 `yaml:"max_duration,omitempty"`
	FadeDuration *float64 `yaml:"fade_duration,omitempty"`
	Name         string   `yaml:"name,omitempty"`
}

// EnvironmentDescriptor is the immutable value the Config Store produces
// for a named environment. Nil or empty optional fields mean "not
// declared" — "no sound" is a nil Sound, not a zero Sound.Volume.
type EnvironmentDescriptor struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`

	Sound      *Sound            `yaml:"sound,omitempty"`
	Music      *Music            `yaml:"music,omitempty"`
	Atmosphere []MixEntry        `yaml:"atmosphere,omitempty"`
	Lights     *AnimationProgram `yaml:"lights,omitempty"`

	TimeVariants map[TimeOfDay]*DescriptorOverride `yaml:"time_variants,omitempty"`
}

// DescriptorOverride is the partial shape merged over a base descriptor for
// a given TimeOfDay. A nil field in the override leaves the base value
// untouched; scalars and arrays replace wholesale on merge (spec §6/§9).
type DescriptorOverride struct {
	Category   *string           `yaml:"category,omitempty"`
	Sound      *Sound            `yaml:"sound,omitempty"`
	Music      *Music            `yaml:"music,omitempty"`
	Atmosphere []MixEntry        `yaml:"atmosphere,omitempty"`
	Lights     *AnimationProgram `yaml:"lights,omitempty"`
}

// AvailableTimes returns the TimeOfDay values this descriptor declares a
// variant for, plus whether it has any variants at all.
func (d *EnvironmentDescriptor) AvailableTimes() ([]TimeOfDay, bool) {
	if len(d.TimeVariants) == 0 {
		return nil, false
	}
	times := make([]TimeOfDay, 0, len(d.TimeVariants))
	for t := range d.TimeVariants {
		times = append(times, t)
	}
	return times, true
}

// Validate checks the structural and range invariants of spec §7's
// "Invalid" error kind. A descriptor failing Validate is excluded from the
// Config Store at load time.
func (d *EnvironmentDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor: name is required")
	}
	if d.Sound != nil {
		if d.Sound.Volume < 1 || d.Sound.Volume > 100 {
			return fmt.Errorf("descriptor %q: sound.volume %d out of range [1,100]", d.Name, d.Sound.Volume)
		}
		if d.Sound.File == "" {
			return fmt.Errorf("descriptor %q: sound.file is required", d.Name)
		}
	}
	for i, m := range d.Atmosphere {
		if err := m.validate(); err != nil {
			return fmt.Errorf("descriptor %q: atmosphere[%d]: %w", d.Name, i, err)
		}
	}
	if d.Lights != nil {
		if err := d.Lights.Validate(); err != nil {
			return fmt.Errorf("descriptor %q: lights: %w", d.Name, err)
		}
	}
	for t := range d.TimeVariants {
		if !ValidTimeOfDay(t) {
			return fmt.Errorf("descriptor %q: unknown time_variants key %q", d.Name, t)
		}
		if t == Daytime {
			return fmt.Errorf("descriptor %q: time_variants.daytime is forbidden (daytime is identity)", d.Name)
		}
	}
	return nil
}

func (m *MixEntry) validate() error {
	if m.URL == "" {
		return fmt.Errorf("url is required")
	}
	if m.Volume < 1 || m.Volume > 100 {
		return fmt.Errorf("volume %d out of range [1,100]", m.Volume)
	}
	if m.MaxDuration != nil && *m.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive, got %v", *m.MaxDuration)
	}
	if m.FadeDuration != nil && *m.FadeDuration <= 0 {
		return fmt.Errorf("fade_duration must be positive, got %v", *m.FadeDuration)
	}
	if m.MaxDuration != nil && m.FadeDuration != nil && *m.FadeDuration > *m.MaxDuration {
		// Spec §4.2: "Require max_duration >= fade_duration; if violated, use
		// fade_duration := max_duration." This is a run-time normalization,
		// not a load-time rejection, so Validate accepts it; the atmosphere
		// engine clamps it on start.
		return nil
	}
	return nil
}

// ResolvedAt returns the descriptor as it applies for TimeOfDay t: the base
// descriptor when t has no variant (or t == Daytime), otherwise the base
// deep-merged with the variant override.
func (d *EnvironmentDescriptor) ResolvedAt(t TimeOfDay) *EnvironmentDescriptor {
	if t == Daytime {
		return d
	}
	override, ok := d.TimeVariants[t]
	if !ok {
		return d
	}
	merged := *d
	if override.Category != nil {
		merged.Category = *override.Category
	}
	if override.Sound != nil {
		merged.Sound = override.Sound
	}
	if override.Music != nil {
		merged.Music = override.Music
	}
	if override.Atmosphere != nil {
		merged.Atmosphere = override.Atmosphere
	}
	if override.Lights != nil {
		merged.Lights = d.Lights.MergeOverride(override.Lights)
	}
	return &merged
}
