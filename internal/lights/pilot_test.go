package lights

import (
	"math/rand"
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/models"
)

func TestProducePilots_InheritBackdropAlwaysResolves(t *testing.T) {
	program := &models.AnimationProgram{
		CycleTime: 1,
		Groups: map[string]models.GroupProgram{
			"backdrop": &models.RgbProgram{Base: models.RGB{R: 10, G: 20, B: 30}, Brightness: models.Range{Min: 50, Max: 50}},
			"overhead": &models.InheritBackdropProgram{},
		},
	}
	r := rand.New(rand.NewSource(1))
	pilots := producePilots(program, r, time.Second)

	backdrop := pilots["backdrop"]
	overhead := pilots["overhead"]
	if overhead != backdrop {
		t.Fatalf("expected overhead to inherit backdrop's pilot exactly, got %+v vs %+v", overhead, backdrop)
	}
	if battlefield := pilots["battlefield"]; battlefield.Kind != "off" {
		t.Fatalf("expected absent group to emit Off, got %+v", battlefield)
	}
}

func TestProducePilots_InheritOverheadBeforeOverheadResolvesOff(t *testing.T) {
	// backdrop -> InheritOverhead: overhead hasn't been computed yet at
	// that point in visit order, so it must fall back to Off (spec §9).
	program := &models.AnimationProgram{
		CycleTime: 1,
		Groups: map[string]models.GroupProgram{
			"backdrop": &models.InheritOverheadProgram{},
			"overhead": &models.RgbProgram{Base: models.RGB{R: 1, G: 2, B: 3}, Brightness: models.Range{Min: 10, Max: 10}},
		},
	}
	r := rand.New(rand.NewSource(1))
	pilots := producePilots(program, r, time.Second)

	if pilots["backdrop"].Kind != "off" {
		t.Fatalf("expected backdrop's forward-reaching inherit to resolve Off, got %+v", pilots["backdrop"])
	}
}

func TestProduceRgbPilot_VarianceStaysClipped(t *testing.T) {
	p := &models.RgbProgram{
		Base:       models.RGB{R: 250, G: 5, B: 128},
		Variance:   models.RGB{R: 20, G: 20, B: 0},
		Brightness: models.Range{Min: 1, Max: 1},
	}
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		pilot := produceRgbPilot(p, r, time.Second)
		if pilot.R < 0 || pilot.R > 255 || pilot.G < 0 || pilot.G > 255 {
			t.Fatalf("pilot channel out of [0,255]: %+v", pilot)
		}
	}
}

func TestProduceScenePilot_SingleSceneIDWins(t *testing.T) {
	id := 42
	speed := 7
	p := &models.SceneProgram{
		SceneIDs:      []int{1, 2, 3},
		SpeedRange:    models.Range{Min: 1, Max: 200},
		SingleSceneID: &id,
		SingleSpeed:   &speed,
	}
	r := rand.New(rand.NewSource(1))
	pilot := produceScenePilot(p, r)
	if pilot.SceneID != id || pilot.Speed != speed {
		t.Fatalf("expected pinned scene/speed, got %+v", pilot)
	}
}

func TestOffProgram_ZeroPilot(t *testing.T) {
	program := &models.AnimationProgram{
		CycleTime: 1,
		Groups:    map[string]models.GroupProgram{"backdrop": &models.OffProgram{}},
	}
	pilots := producePilots(program, rand.New(rand.NewSource(1)), time.Second)
	p := pilots["backdrop"]
	if p.Kind != "off" || p.R != 0 || p.G != 0 || p.B != 0 || p.Brightness != 0 {
		t.Fatalf("expected zero pilot, got %+v", p)
	}
}
