package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/quietloop/ambientd/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	environmentsSubdir = "environments"
	collectionsSubdir  = "sound_conf"
	yamlExt            = ".yaml"
	ymlExt             = ".yml"
)

// reload walks dir/environments and dir/sound_conf, parses every YAML
// document, validates it, and swaps the in-memory tables atomically. A
// descriptor or collection that fails Validate is logged and excluded
// (spec §7, Invalid) rather than aborting the whole reload.
func (s *Store) reload() error {
	descriptors, err := loadDescriptors(filepath.Join(s.dir, environmentsSubdir))
	if err != nil {
		return fmt.Errorf("config: load environments: %w", err)
	}
	collections, err := loadCollections(filepath.Join(s.dir, collectionsSubdir))
	if err != nil {
		return fmt.Errorf("config: load sound_conf: %w", err)
	}

	s.mu.Lock()
	s.descriptors = descriptors
	s.collections = collections
	s.version++
	version := s.version
	callbacks := append([]func(int){}, s.onReload...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(version)
	}
	return nil
}

func loadDescriptors(dir string) (map[string]*models.EnvironmentDescriptor, error) {
	out := make(map[string]*models.EnvironmentDescriptor)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("config: read descriptor failed", "path", path, "err", err)
			continue
		}
		var d models.EnvironmentDescriptor
		if err := yaml.Unmarshal(data, &d); err != nil {
			slog.Warn("config: parse descriptor failed, excluding", "path", path, "err", err)
			continue
		}
		if err := d.Validate(); err != nil {
			slog.Warn("config: invalid descriptor, excluding", "path", path, "err", err)
			continue
		}
		out[d.Name] = &d
	}
	return out, nil
}

func loadCollections(dir string) (map[string]*models.SoundCollection, error) {
	out := make(map[string]*models.SoundCollection)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("config: read sound_conf failed", "path", path, "err", err)
			continue
		}
		var c models.SoundCollection
		if err := yaml.Unmarshal(data, &c); err != nil {
			slog.Warn("config: parse sound_conf failed, excluding", "path", path, "err", err)
			continue
		}
		if err := c.Validate(); err != nil {
			slog.Warn("config: invalid sound_conf, excluding", "path", path, "err", err)
			continue
		}
		out[c.ID] = &c
	}
	return out, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == yamlExt || ext == ymlExt
}

func matches(field, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(query))
}
