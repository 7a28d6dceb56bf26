package lights

import (
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/quietloop/ambientd/internal/models"
)

// LampPort is the fixed UDP port the commodity fixtures of spec §6 listen
// on.
const LampPort = 38899

const discoveryWindow = 3 * time.Second

type setPilotParams struct {
	R        *int `json:"r,omitempty"`
	G        *int `json:"g,omitempty"`
	B        *int `json:"b,omitempty"`
	Dimming  *int `json:"dimming,omitempty"`
	SceneID  *int `json:"sceneId,omitempty"`
	Speed    *int `json:"speed,omitempty"`
	State    bool `json:"state"`
}

type lampMessage struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

func pilotPayload(p models.Pilot) ([]byte, error) {
	params := setPilotParams{State: p.Kind != "off"}
	if p.Kind == "off" {
		return json.Marshal(lampMessage{Method: "setPilot", Params: params})
	}
	if p.Brightness > 0 {
		d := p.Brightness
		params.Dimming = &d
	}
	switch p.Kind {
	case "rgb":
		r, g, b := p.R, p.G, p.B
		params.R, params.G, params.B = &r, &g, &b
	case "scene":
		s, sp := p.SceneID, p.Speed
		params.SceneID, params.Speed = &s, &sp
	}
	return json.Marshal(lampMessage{Method: "setPilot", Params: params})
}

// sendPilot fire-and-forgets a setPilot payload to fixture over UDP. I/O
// errors are dropped per spec §4.4 — the protocol trades reliability for
// latency and trivial fan-out.
func sendPilot(conn *net.UDPConn, addr *net.UDPAddr, p models.Pilot) {
	payload, err := pilotPayload(p)
	if err != nil {
		slog.Debug("lights: encode pilot failed", "err", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := conn.WriteToUDP(payload, addr); err != nil {
		slog.Debug("lights: send pilot failed", "addr", addr, "err", err)
	}
}

// Discover broadcasts a getSystemConfig payload to broadcastAddr
// ("255.255.255.255:38899"-shaped) and collects replying fixture
// addresses for discoveryWindow (spec §4.4, ~3s).
func Discover(broadcastAddr string) ([]string, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", broadcastAddr)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(lampMessage{Method: "getSystemConfig"})
	if err != nil {
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := conn.WriteToUDP(payload, dst); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var found []string
	deadline := time.Now().Add(discoveryWindow)
	buf := make([]byte, 2048)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(remaining))
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		_ = n
		addr := from.String()
		if _, ok := seen[addr]; !ok {
			seen[addr] = struct{}{}
			found = append(found, addr)
		}
	}
	return found, nil
}
