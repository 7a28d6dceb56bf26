package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quietloop/ambientd/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_LoadsValidDescriptorsAndExcludesInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "environments"), "tavern.yaml", `
name: Tavern
category: social
`)
	writeFile(t, filepath.Join(dir, "environments"), "bad.yaml", `
name: ""
`)

	s, err := config.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get("Tavern"); err != nil {
		t.Fatalf("expected Tavern to load, got %v", err)
	}
	if _, err := s.Get(""); err == nil {
		t.Fatal("expected invalid descriptor to be excluded")
	}
}

func TestStore_SearchMatchesNameOrCategory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "environments"), "tavern.yaml", `
name: Tavern
category: social
`)
	writeFile(t, filepath.Join(dir, "environments"), "library.yaml", `
name: Library
category: quiet
`)

	s, err := config.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	results := s.Search("tav")
	if len(results) != 1 || results[0].Name != "Tavern" {
		t.Fatalf("expected Tavern match, got %+v", results)
	}

	results = s.Search("quiet")
	if len(results) != 1 || results[0].Name != "Library" {
		t.Fatalf("expected Library match by category, got %+v", results)
	}
}

func TestStore_CollectionLoadsAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sound_conf"), "door-creaks.yaml", `
id: door-creaks
entries:
  - path: /sounds/creak1.ogg
    volume: 60
  - url: https://example/creak2.ogg
    volume: 50
`)

	s, err := config.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Collection("door-creaks")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.Entries))
	}
}

func TestWatcher_ReloadBumpsVersionOnFileChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "environments"), "tavern.yaml", `
name: Tavern
`)

	s, err := config.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	initial := s.Version()

	w, err := config.Watch(s)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var reloaded int
	done := make(chan struct{})
	s.OnReload(func(v int) {
		reloaded = v
		close(done)
	})

	writeFile(t, filepath.Join(dir, "environments"), "library.yaml", `
name: Library
`)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload within timeout")
	}

	if reloaded <= initial {
		t.Fatalf("expected version to increase, got %d -> %d", initial, reloaded)
	}
	if _, err := s.Get("Library"); err != nil {
		t.Fatalf("expected Library to be loaded after reload, got %v", err)
	}
}
