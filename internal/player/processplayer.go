package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

const (
	sigtermTimeout = 3 * time.Second
)

// ErrUnknownHandle is returned by operations on a handle the Player never
// issued, or that has already exited. Per spec §7 this is a PlayerFailure.
var ErrUnknownHandle = errors.New("player: unknown handle")

type procEntry struct {
	cmd     *exec.Cmd
	pid     int
	tag     string
	ipcPath string
	volume  int
	paused  bool
}

// ProcessPlayer is the concrete Player: a process-group spawn/kill
// policy with no restart/backoff loop, since spec §7's PlayerFailure is
// surfaced once to the caller of the originating Orchestrator operation,
// never retried by this collaborator itself.
//
// It spawns mpv in --idle=no, audio-only mode with an IPC socket for live
// volume control, and uses SIGSTOP/SIGCONT on the process group for
// pause/resume (the "suspended at the OS level" requirement of §3).
type ProcessPlayer struct {
	Binary   string // defaults to "mpv"
	IPCDir   string // directory for per-stream IPC sockets; defaults to os.TempDir()

	mu      sync.Mutex
	next    uint64
	procs   map[Handle]*procEntry
}

// NewProcessPlayer returns a ProcessPlayer with sane defaults.
func NewProcessPlayer() *ProcessPlayer {
	return &ProcessPlayer{
		Binary: "mpv",
		IPCDir: os.TempDir(),
		procs:  make(map[Handle]*procEntry),
	}
}

var _ Player = (*ProcessPlayer)(nil)

func (p *ProcessPlayer) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "mpv"
}

func (p *ProcessPlayer) ipcDir() string {
	if p.IPCDir != "" {
		return p.IPCDir
	}
	return os.TempDir()
}

func (p *ProcessPlayer) spawn(ctx context.Context, path string, volume int, tag string, loop bool) (Handle, error) {
	p.mu.Lock()
	p.next++
	h := Handle(p.next)
	ipcPath := filepath.Join(p.ipcDir(), fmt.Sprintf("ambientd-player-%d.sock", h))
	p.mu.Unlock()

	args := []string{
		"--no-video",
		"--idle=no",
		fmt.Sprintf("--input-ipc-server=%s", ipcPath),
		fmt.Sprintf("--volume=%d", volume),
	}
	if loop {
		args = append(args, "--loop-file=inf")
	}
	args = append(args, path)

	cmd := exec.CommandContext(ctx, p.binary(), args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("player: spawn %s: %w", path, err)
	}

	entry := &procEntry{cmd: cmd, pid: cmd.Process.Pid, tag: tag, ipcPath: ipcPath, volume: volume}
	p.mu.Lock()
	p.procs[h] = entry
	p.mu.Unlock()

	slog.Info("player: spawned", "handle", h, "pid", entry.pid, "tag", tag, "loop", loop)

	go func() {
		_ = cmd.Wait()
		p.mu.Lock()
		delete(p.procs, h)
		p.mu.Unlock()
		_ = os.Remove(ipcPath)
	}()

	return h, nil
}

func (p *ProcessPlayer) PlayOneShot(ctx context.Context, path string, volume int, tag string) (Handle, error) {
	return p.spawn(ctx, path, volume, tag, false)
}

func (p *ProcessPlayer) PlayLoop(ctx context.Context, path string, volume int, tag string) (Handle, error) {
	return p.spawn(ctx, path, volume, tag, true)
}

func (p *ProcessPlayer) SetVolume(h Handle, volume int) error {
	p.mu.Lock()
	entry, ok := p.procs[h]
	if ok {
		entry.volume = volume
	}
	p.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return sendIPCCommand(entry.ipcPath, []interface{}{"set_property", "volume", volume})
}

func (p *ProcessPlayer) Pause(h Handle) error {
	p.mu.Lock()
	entry, ok := p.procs[h]
	if ok {
		entry.paused = true
	}
	p.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return syscall.Kill(-entry.pid, syscall.SIGSTOP)
}

func (p *ProcessPlayer) Resume(h Handle) error {
	p.mu.Lock()
	entry, ok := p.procs[h]
	if ok {
		entry.paused = false
	}
	p.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	return syscall.Kill(-entry.pid, syscall.SIGCONT)
}

func (p *ProcessPlayer) Kill(h Handle) {
	p.mu.Lock()
	entry, ok := p.procs[h]
	delete(p.procs, h)
	p.mu.Unlock()
	if !ok {
		return
	}
	killProcessGroup(entry.pid)
	_ = os.Remove(entry.ipcPath)
}

func (p *ProcessPlayer) KillAllWithTag(tag string) {
	p.mu.Lock()
	var matched []*procEntry
	for h, entry := range p.procs {
		if entry.tag == tag {
			matched = append(matched, entry)
			delete(p.procs, h)
		}
	}
	p.mu.Unlock()

	for _, entry := range matched {
		killProcessGroup(entry.pid)
		_ = os.Remove(entry.ipcPath)
	}
}

func (p *ProcessPlayer) PauseAllWithTag(tag string) {
	p.mu.Lock()
	var pids []int
	for _, entry := range p.procs {
		if entry.tag == tag {
			entry.paused = true
			pids = append(pids, entry.pid)
		}
	}
	p.mu.Unlock()
	for _, pid := range pids {
		_ = syscall.Kill(-pid, syscall.SIGSTOP)
	}
}

func (p *ProcessPlayer) ResumeAllWithTag(tag string) {
	p.mu.Lock()
	var pids []int
	for _, entry := range p.procs {
		if entry.tag == tag {
			entry.paused = false
			pids = append(pids, entry.pid)
		}
	}
	p.mu.Unlock()
	for _, pid := range pids {
		_ = syscall.Kill(-pid, syscall.SIGCONT)
	}
}

// killProcessGroup sends SIGTERM to the process group, waits
// sigtermTimeout, then escalates to SIGKILL.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		deadline := time.Now().Add(sigtermTimeout)
		for time.Now().Before(deadline) {
			if syscall.Kill(-pid, 0) != nil {
				close(done)
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(sigtermTimeout + 100*time.Millisecond):
		slog.Warn("player: SIGTERM timed out, sending SIGKILL", "pid", pid)
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}
}
