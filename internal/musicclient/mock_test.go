package musicclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quietloop/ambientd/internal/musicclient"
)

func TestMockClient_PlayAndPause(t *testing.T) {
	c := musicclient.NewMockClient(true)
	ctx := context.Background()

	if err := c.PlayContext(ctx, "spotify:playlist:abc"); err != nil {
		t.Fatal(err)
	}
	if c.Playing() != "spotify:playlist:abc" {
		t.Fatalf("expected playing uri recorded, got %q", c.Playing())
	}
	if err := c.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Playing() != "" {
		t.Fatalf("expected playing cleared after pause, got %q", c.Playing())
	}
	if c.PauseCalls() != 1 {
		t.Fatalf("expected 1 pause call, got %d", c.PauseCalls())
	}
}

func TestMockClient_AuthFailureMarksUnavailable(t *testing.T) {
	c := musicclient.NewMockClient(true)
	c.AuthErr = errors.New("no credentials")
	if err := c.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.IsAvailable() {
		t.Fatal("expected IsAvailable false after failed authenticate")
	}
}
