package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
)

// Registry enumerates skills under a root directory and renders the
// agent system prompt over the discovered set. Enumeration happens
// lazily on first query and is held in memory until an explicit Reload;
// the held snapshot is swapped atomically so concurrent readers never
// observe a partially-rebuilt set.
type Registry struct {
	rootPath string
	logger   *slog.Logger

	loaded  atomic.Bool
	snapshot atomic.Pointer[[]*Skill]
}

// NewRegistry returns a Registry that will scan rootPath on first use.
func NewRegistry(rootPath string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{rootPath: rootPath, logger: logger}
}

// List returns the current skill set, discovering it first if this is
// the first call since construction or the last Reload.
func (r *Registry) List() ([]*Skill, error) {
	if r.loaded.Load() {
		return *r.snapshot.Load(), nil
	}
	return r.Reload()
}

// Get returns the skill with the given id, discovering the set first
// if needed.
func (r *Registry) Get(id string) (*Skill, bool, error) {
	all, err := r.List()
	if err != nil {
		return nil, false, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, true, nil
		}
	}
	return nil, false, nil
}

// Reload re-scans the root directory and atomically replaces the
// in-memory skill set.
func (r *Registry) Reload() ([]*Skill, error) {
	found, err := discover(r.rootPath, r.logger)
	if err != nil {
		return nil, err
	}
	r.snapshot.Store(&found)
	r.loaded.Store(true)
	return found, nil
}

// discover scans rootPath's first-level subdirectories for Skill.md
// files, parsing each and skipping (with a warning log) any directory
// that fails to parse rather than failing the whole scan.
func discover(rootPath string, logger *slog.Logger) ([]*Skill, error) {
	entries, err := os.ReadDir(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read skills root %s: %w", rootPath, err)
	}

	var skillsFound []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(rootPath, entry.Name())
		skillFile := filepath.Join(dirPath, Filename)
		if _, err := os.Stat(skillFile); err != nil {
			continue
		}

		skill, err := parseFile(entry.Name(), dirPath)
		if err != nil {
			logger.Warn("skipping invalid skill", "id", entry.Name(), "error", err)
			continue
		}
		skillsFound = append(skillsFound, skill)
	}

	sort.Slice(skillsFound, func(i, j int) bool { return skillsFound[i].ID < skillsFound[j].ID })
	return skillsFound, nil
}
