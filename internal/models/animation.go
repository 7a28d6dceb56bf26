package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GroupNames are the three fixed lights groups the Lights Engine knows
// about, in tick-visit order. Order is significant only for inheritance
// (spec §4.4, §9): InheritBackdrop always resolves because backdrop is
// visited first; InheritOverhead resolves to Off if evaluated before
// overhead's own pilot exists.
var GroupNames = []string{"backdrop", "overhead", "battlefield"}

// AnimationProgram is a hot-swappable lights program: a tick period plus
// one GroupProgram per named group. Groups absent from the map emit Off.
type AnimationProgram struct {
	CycleTime float64                 `yaml:"cycletime"`
	Groups    map[string]GroupProgram `yaml:"groups"`
}

// MergeOverride key-wise merges override's groups over base's (spec
// §6/§9: "maps merge key-wise"; "null in the override removes the base
// key"), leaving groups that override doesn't mention untouched. A
// non-positive override.CycleTime leaves base's cycletime in place.
func (base *AnimationProgram) MergeOverride(override *AnimationProgram) *AnimationProgram {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	merged := &AnimationProgram{
		CycleTime: base.CycleTime,
		Groups:    make(map[string]GroupProgram, len(base.Groups)+len(override.Groups)),
	}
	for name, g := range base.Groups {
		merged.Groups[name] = g
	}
	for name, g := range override.Groups {
		if g == nil {
			delete(merged.Groups, name)
			continue
		}
		merged.Groups[name] = g
	}
	if override.CycleTime > 0 {
		merged.CycleTime = override.CycleTime
	}
	return merged
}

// Validate checks the structural invariants of spec §7.
func (p *AnimationProgram) Validate() error {
	if p.CycleTime <= 0 {
		return fmt.Errorf("cycletime must be positive, got %v", p.CycleTime)
	}
	for name, g := range p.Groups {
		if !isKnownGroup(name) {
			return fmt.Errorf("unknown group %q", name)
		}
		if g == nil {
			// An explicit null group; it emits Off like an absent one.
			continue
		}
		if err := g.validate(); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
	}
	return nil
}

func isKnownGroup(name string) bool {
	for _, n := range GroupNames {
		if n == name {
			return true
		}
	}
	return false
}

// SafeProgram is the terminal program installed by Lights.SetSafe: every
// fixture gets a dim warm-white pilot once, then the loop stops.
func SafeProgram() *AnimationProgram {
	groups := make(map[string]GroupProgram, len(GroupNames))
	for _, name := range GroupNames {
		groups[name] = &RgbProgram{
			Base:       RGB{R: 60, G: 45, B: 20},
			Variance:   RGB{},
			Brightness: Range{Min: 40, Max: 40},
		}
	}
	return &AnimationProgram{CycleTime: 1, Groups: groups}
}

// AllOffProgram installs every group as Off — used by StopLights.
func AllOffProgram() *AnimationProgram {
	groups := make(map[string]GroupProgram, len(GroupNames))
	for _, name := range GroupNames {
		groups[name] = &OffProgram{}
	}
	return &AnimationProgram{CycleTime: 1, Groups: groups}
}

// RGB is an 8-bit-per-channel color, additive-clipped when variance is applied.
type RGB struct {
	R, G, B int `yaml:"-"`
}

// UnmarshalYAML accepts a [r, g, b] sequence.
func (c *RGB) UnmarshalYAML(value *yaml.Node) error {
	var arr [3]int
	if err := value.Decode(&arr); err != nil {
		return err
	}
	c.R, c.G, c.B = arr[0], arr[1], arr[2]
	return nil
}

// MarshalYAML emits a [r, g, b] sequence.
func (c RGB) MarshalYAML() (interface{}, error) {
	return [3]int{c.R, c.G, c.B}, nil
}

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r Range) validate(lo, hi int, label string) error {
	if r.Min > r.Max {
		return fmt.Errorf("%s.min (%d) > %s.max (%d)", label, r.Min, label, r.Max)
	}
	if r.Min < lo || r.Max > hi {
		return fmt.Errorf("%s out of range [%d,%d]: got [%d,%d]", label, lo, hi, r.Min, r.Max)
	}
	return nil
}

// Flash is a probabilistic override applied to an Rgb pilot for one tick.
type Flash struct {
	Probability float64 `yaml:"probability"`
	Color       *RGB    `yaml:"color,omitempty"`
	Brightness  *int    `yaml:"brightness,omitempty"`
	DurationMs  *int    `yaml:"duration_ms,omitempty"`
}

// GroupProgram is the tagged variant of spec §3. Concrete types are
// RgbProgram, SceneProgram, OffProgram, InheritBackdropProgram, and
// InheritOverheadProgram — an interface + marker-method dispatch idiom.
type GroupProgram interface {
	isGroupProgram()
	validate() error
}

// RgbProgram draws a color by adding a uniform per-channel offset to Base,
// clipped to [0,255], with a brightness draw from Brightness and an
// optional Flash override.
type RgbProgram struct {
	Base       RGB    `yaml:"base"`
	Variance   RGB    `yaml:"variance"`
	Brightness Range  `yaml:"brightness"`
	Flash      *Flash `yaml:"flash,omitempty"`
}

func (*RgbProgram) isGroupProgram() {}

func (p *RgbProgram) validate() error {
	if err := p.Brightness.validate(1, 255, "brightness"); err != nil {
		return err
	}
	if p.Flash != nil {
		if p.Flash.Probability < 0 || p.Flash.Probability > 1 {
			return fmt.Errorf("flash.probability %v out of range [0,1]", p.Flash.Probability)
		}
	}
	return nil
}

// SceneProgram selects a preset scene ID and speed, optionally pinned to a
// single scene/speed via SingleSceneID/SingleSpeed.
type SceneProgram struct {
	SceneIDs      []int  `yaml:"scene_ids"`
	SpeedRange    Range  `yaml:"speed_range"`
	Brightness    *Range `yaml:"brightness,omitempty"`
	SingleSceneID *int   `yaml:"single_scene_id,omitempty"`
	SingleSpeed   *int   `yaml:"single_speed,omitempty"`
}

func (*SceneProgram) isGroupProgram() {}

func (p *SceneProgram) validate() error {
	if p.SingleSceneID == nil && len(p.SceneIDs) == 0 {
		return fmt.Errorf("scene_ids must be non-empty unless single_scene_id is set")
	}
	if err := p.SpeedRange.validate(1, 200, "speed_range"); err != nil {
		return err
	}
	if p.Brightness != nil {
		if err := p.Brightness.validate(1, 255, "brightness"); err != nil {
			return err
		}
	}
	return nil
}

// OffProgram is the terminal "lights off" variant: rgb=(0,0,0), brightness=0.
type OffProgram struct{}

func (*OffProgram) isGroupProgram() {}
func (*OffProgram) validate() error { return nil }

// InheritBackdropProgram copies the pilot produced this tick by "backdrop".
type InheritBackdropProgram struct{}

func (*InheritBackdropProgram) isGroupProgram() {}
func (*InheritBackdropProgram) validate() error { return nil }

// InheritOverheadProgram copies the pilot produced this tick by "overhead".
type InheritOverheadProgram struct{}

func (*InheritOverheadProgram) isGroupProgram() {}
func (*InheritOverheadProgram) validate() error { return nil }

// Pilot is one UDP payload's worth of instruction for a group's fixtures
// at a single tick.
type Pilot struct {
	Kind       string // "rgb" | "scene" | "off"
	R, G, B    int
	Brightness int
	SceneID    int
	Speed      int
}

// OffPilot is the zero-instruction pilot.
func OffPilot() Pilot {
	return Pilot{Kind: "off"}
}
