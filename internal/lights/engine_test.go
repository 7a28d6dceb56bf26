package lights

import (
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/models"
)

func redBackdrop() *models.AnimationProgram {
	return &models.AnimationProgram{
		CycleTime: 0.02,
		Groups: map[string]models.GroupProgram{
			"backdrop": &models.RgbProgram{Base: models.RGB{R: 255, G: 0, B: 0}, Brightness: models.Range{Min: 100, Max: 100}},
		},
	}
}

func blueBackdrop() *models.AnimationProgram {
	return &models.AnimationProgram{
		CycleTime: 0.02,
		Groups: map[string]models.GroupProgram{
			"backdrop": &models.RgbProgram{Base: models.RGB{R: 0, G: 0, B: 255}, Brightness: models.Range{Min: 100, Max: 100}},
			"overhead": &models.InheritBackdropProgram{},
		},
	}
}

func TestHasFixtures(t *testing.T) {
	e, err := New(Topology{"backdrop": {{Address: "127.0.0.1:38899"}}})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if !e.HasFixtures() {
		t.Fatal("expected HasFixtures true with one fixture configured")
	}

	empty, err := New(Topology{})
	if err != nil {
		t.Fatal(err)
	}
	defer empty.Close()
	if empty.HasFixtures() {
		t.Fatal("expected HasFixtures false with no fixtures configured")
	}
}

func TestInstall_HotSwapReplacesProgramWithoutRestartingLoop(t *testing.T) {
	e, err := New(Topology{"backdrop": {{Address: "127.0.0.1:38899"}}})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	e.Install(redBackdrop())
	time.Sleep(30 * time.Millisecond)

	e.Install(blueBackdrop())
	// The swap is immediately visible: the very next Load reflects the new
	// program even if the loop goroutine hasn't woken for its next tick yet.
	if e.program.Load().Groups["overhead"] == nil {
		t.Fatal("expected hot-swapped program to be visible immediately")
	}

	time.Sleep(60 * time.Millisecond)
	e.Stop()
}

func TestSetSafe_TicksOnceThenStops(t *testing.T) {
	e, err := New(Topology{"backdrop": {{Address: "127.0.0.1:38899"}}})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	e.Install(redBackdrop())
	time.Sleep(10 * time.Millisecond)
	e.SetSafe()

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if running {
		t.Fatal("expected engine to be stopped after SetSafe")
	}
}
