package lights

import (
	"math/rand"
	"time"

	"github.com/quietloop/ambientd/internal/models"
)

// producePilots computes one Pilot per known group for a single tick,
// visiting GroupNames in order so Inherit* variants can consult an
// earlier group's already-computed pilot (spec §4.4, §9).
func producePilots(program *models.AnimationProgram, r *rand.Rand, cycleTime time.Duration) map[string]models.Pilot {
	pilots := make(map[string]models.Pilot, len(models.GroupNames))
	for _, name := range models.GroupNames {
		gp, ok := program.Groups[name]
		if !ok {
			pilots[name] = models.OffPilot()
			continue
		}
		pilots[name] = producePilot(gp, pilots, r, cycleTime)
	}
	return pilots
}

func producePilot(gp models.GroupProgram, soFar map[string]models.Pilot, r *rand.Rand, cycleTime time.Duration) models.Pilot {
	switch p := gp.(type) {
	case *models.RgbProgram:
		return produceRgbPilot(p, r, cycleTime)
	case *models.SceneProgram:
		return produceScenePilot(p, r)
	case *models.OffProgram:
		return models.OffPilot()
	case *models.InheritBackdropProgram:
		if pilot, ok := soFar["backdrop"]; ok {
			return pilot
		}
		return models.OffPilot()
	case *models.InheritOverheadProgram:
		if pilot, ok := soFar["overhead"]; ok {
			return pilot
		}
		return models.OffPilot()
	default:
		return models.OffPilot()
	}
}

func produceRgbPilot(p *models.RgbProgram, r *rand.Rand, cycleTime time.Duration) models.Pilot {
	pilot := models.Pilot{
		Kind:       "rgb",
		R:          clip8(p.Base.R + offset(r, p.Variance.R)),
		G:          clip8(p.Base.G + offset(r, p.Variance.G)),
		B:          clip8(p.Base.B + offset(r, p.Variance.B)),
		Brightness: uniformInt(r, p.Brightness.Min, p.Brightness.Max),
	}
	if p.Flash != nil && r.Float64() < p.Flash.Probability {
		if p.Flash.Color != nil {
			pilot.R, pilot.G, pilot.B = p.Flash.Color.R, p.Flash.Color.G, p.Flash.Color.B
		}
		if p.Flash.Brightness != nil {
			pilot.Brightness = *p.Flash.Brightness
		}
		// The override lasts exactly one tick: the engine re-draws every
		// tick. DurationMs is not read, so a duration_ms shorter than the
		// cycletime does not end the flash early.
		_ = cycleTime
	}
	return pilot
}

func produceScenePilot(p *models.SceneProgram, r *rand.Rand) models.Pilot {
	sceneID := 0
	if p.SingleSceneID != nil {
		sceneID = *p.SingleSceneID
	} else if len(p.SceneIDs) > 0 {
		sceneID = p.SceneIDs[r.Intn(len(p.SceneIDs))]
	}

	speed := 0
	if p.SingleSpeed != nil {
		speed = *p.SingleSpeed
	} else {
		speed = uniformInt(r, p.SpeedRange.Min, p.SpeedRange.Max)
	}

	pilot := models.Pilot{Kind: "scene", SceneID: sceneID, Speed: speed}
	if p.Brightness != nil {
		pilot.Brightness = uniformInt(r, p.Brightness.Min, p.Brightness.Max)
	}
	return pilot
}

func offset(r *rand.Rand, variance int) int {
	if variance <= 0 {
		return 0
	}
	// uniform in [-variance, +variance]
	return r.Intn(2*variance+1) - variance
}

func uniformInt(r *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}
	return min + r.Intn(max-min+1)
}

func clip8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
