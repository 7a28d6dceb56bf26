// Package musicclient implements the Music Client collaborator of spec
// §6: an asynchronous, best-effort wrapper around a third-party music
// service's playback-control API.
package musicclient

import "context"

// Client is the Music Client contract. Every method is best-effort: a
// failure is returned as an error and is never fatal to the caller (spec
// §7, Unavailable). SpotifyClient also clears IsAvailable on
// authentication failures, transport errors and 403/404 replies.
type Client interface {
	// Authenticate is idempotent; implementations cache a bearer token
	// with an automatic-refresh policy.
	Authenticate(ctx context.Context) error
	// PlayContext starts playback of an opaque context URI, fire-and-forget.
	PlayContext(ctx context.Context, uri string) error
	// Pause stops playback if a device is available.
	Pause(ctx context.Context) error
	// IsAvailable is a cheap status read, reflected in the snapshot.
	IsAvailable() bool
}
