package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the cycletime/groups shape of spec §3, dispatching
// each group entry on its "kind" tag to a concrete GroupProgram via a
// switch-on-type-string.
func (p *AnimationProgram) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CycleTime float64              `yaml:"cycletime"`
		Groups    map[string]yaml.Node `yaml:"groups"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.CycleTime = raw.CycleTime
	if len(raw.Groups) == 0 {
		return nil
	}
	p.Groups = make(map[string]GroupProgram, len(raw.Groups))
	for name, node := range raw.Groups {
		node := node
		if node.Tag == "!!null" {
			// An explicit "group: null" in a time_variants override removes
			// the base's key on merge (spec §6/§9); in a base descriptor it
			// is indistinguishable from an absent key, so it also emits Off.
			p.Groups[name] = nil
			continue
		}
		g, err := decodeGroupProgram(&node)
		if err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		p.Groups[name] = g
	}
	return nil
}

func decodeGroupProgram(node *yaml.Node) (GroupProgram, error) {
	var kind struct {
		Kind string `yaml:"kind"`
	}
	if err := node.Decode(&kind); err != nil {
		return nil, err
	}
	switch kind.Kind {
	case "rgb":
		var p RgbProgram
		if err := node.Decode(&p); err != nil {
			return nil, err
		}
		return &p, nil
	case "scene":
		var p SceneProgram
		if err := node.Decode(&p); err != nil {
			return nil, err
		}
		return &p, nil
	case "off", "":
		return &OffProgram{}, nil
	case "inherit_backdrop":
		return &InheritBackdropProgram{}, nil
	case "inherit_overhead":
		return &InheritOverheadProgram{}, nil
	default:
		return nil, fmt.Errorf("unknown group kind %q", kind.Kind)
	}
}
