// Package player implements the Player collaborator of spec §6: spawning
// and killing external decoder processes for local audio files.
package player

import "context"

// Handle identifies one live (or recently-live) decoder process. It is
// opaque to callers; the zero value never refers to a live process.
type Handle uint64

// Player spawns and controls subprocess-backed audio streams. Every
// exported method is safe for concurrent use.
type Player interface {
	// PlayOneShot spawns a non-looping decoder for a local file path.
	PlayOneShot(ctx context.Context, path string, volume int, tag string) (Handle, error)
	// PlayLoop spawns a looping decoder for a local file path.
	PlayLoop(ctx context.Context, path string, volume int, tag string) (Handle, error)
	// SetVolume applies to a live stream.
	SetVolume(h Handle, volume int) error
	// Pause and Resume suspend/continue a live stream at the OS level;
	// the suspension must survive arbitrarily long.
	Pause(h Handle) error
	Resume(h Handle) error
	// Kill terminates a live handle. Killing an already-dead or unknown
	// handle is a no-op, not an error.
	Kill(h Handle)
	// KillAllWithTag terminates every live handle sharing tag.
	KillAllWithTag(tag string)
	// PauseAllWithTag and ResumeAllWithTag suspend/continue every live
	// handle sharing tag, at the OS level. Used by toggle_pause_all_sounds
	// to act on a whole class of stream (one-shot or atmosphere) without
	// the caller tracking individual handles.
	PauseAllWithTag(tag string)
	ResumeAllWithTag(tag string)
}
