// Package config implements the Config Store external collaborator of
// spec §6: it loads a directory of YAML environment descriptors (plus
// sound_conf: collection documents) and supplies immutable
// EnvironmentDescriptor values by name, hot-reloading on change and
// bumping ConfigVersion.
//
// The debounced *write* discipline of a JSON-backed config store becomes
// a debounced *reload* here, driven by fsnotify instead of an explicit
// Save call.
package config

import (
	"fmt"
	"sync"

	"github.com/quietloop/ambientd/internal/models"
)

// Store supplies descriptors and sound collections loaded from a
// directory tree. Safe for concurrent use.
type Store struct {
	dir string

	mu          sync.RWMutex
	descriptors map[string]*models.EnvironmentDescriptor
	collections map[string]*models.SoundCollection
	version     int

	onReload []func(version int)
}

// New loads dir once synchronously and returns a Store. Call Watch to
// begin hot-reloading on subsequent changes.
func New(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the named descriptor, or models.ErrNotFound (spec §7).
func (s *Store) Get(name string) (*models.EnvironmentDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptors[name]
	if !ok {
		return nil, models.ErrNotFound(fmt.Sprintf("environment %q", name))
	}
	return d, nil
}

// Collection returns the named sound_conf: collection document.
func (s *Store) Collection(id string) (*models.SoundCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, models.ErrNotFound(fmt.Sprintf("sound collection %q", id))
	}
	return c, nil
}

// AvailableTimes is a query-only helper matching the Orchestrator
// operation of the same name.
func (s *Store) AvailableTimes(name string) (times []models.TimeOfDay, hasVariants bool, err error) {
	d, err := s.Get(name)
	if err != nil {
		return nil, false, err
	}
	times, hasVariants = d.AvailableTimes()
	return times, hasVariants, nil
}

// Search is a pure, case-insensitive substring match over descriptor name
// and category (spec §4.1 "fuzzy-matchable fields").
func (s *Store) Search(query string) []*models.EnvironmentDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*models.EnvironmentDescriptor
	for _, d := range s.descriptors {
		if matches(d.Name, query) || matches(d.Category, query) {
			results = append(results, d)
		}
	}
	return results
}

// Version returns the current config_version, incremented on every
// successful reload.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnReload registers a callback invoked after every successful reload,
// with the new version. Used by the Orchestrator to re-publish
// config_version in the snapshot.
func (s *Store) OnReload(fn func(version int)) {
	s.mu.Lock()
	s.onReload = append(s.onReload, fn)
	s.mu.Unlock()
}
