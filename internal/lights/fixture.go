// Package lights implements the Lights Engine of spec §4.4: a background
// animation loop that drives grouped network lamps over a fire-and-forget
// UDP protocol, with atomic hot-swap of the active AnimationProgram and
// inter-group pilot inheritance.
//
// Grounded on other_examples' EntertainmentStreamer (UDP, ticker-driven
// send loop) for the loop shape; pilot production follows spec §4.4's
// pseudocode directly, there being no equivalent in any pack repo.
package lights

import "github.com/quietloop/ambientd/internal/models"

// Fixture is one network lamp endpoint, addressed by the UDP protocol of
// §6 (port 38899, JSON setPilot/getSystemConfig payloads).
type Fixture struct {
	Address string // "ip:38899"
}

// Topology assigns fixtures to the engine's three named groups. Groups
// absent from the map simply own no fixtures.
type Topology map[string][]Fixture

// GroupNames is the fixed, inheritance-significant visit order of spec
// §4.4's animation loop.
var GroupNames = models.GroupNames
