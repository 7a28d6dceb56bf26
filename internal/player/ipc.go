package player

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// sendIPCCommand writes a single JSON IPC command to the decoder's
// Unix-domain control socket. Best-effort: the decoder drains its IPC
// socket asynchronously and doesn't reply on this path.
func sendIPCCommand(sockPath string, command []interface{}) error {
	conn, err := net.DialTimeout("unix", sockPath, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("player: ipc dial %s: %w", sockPath, err)
	}
	defer conn.Close()

	payload, err := json.Marshal(map[string]interface{}{"command": command})
	if err != nil {
		return fmt.Errorf("player: ipc marshal: %w", err)
	}
	payload = append(payload, '\n')

	_ = conn.SetWriteDeadline(time.Now().Add(500 * time.Millisecond))
	_, err = conn.Write(payload)
	return err
}
