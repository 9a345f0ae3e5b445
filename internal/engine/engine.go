package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dirvault/dirvault/internal/config"
	"github.com/dirvault/dirvault/internal/keystore"
	logger "github.com/dirvault/dirvault/internal/logging"
	"github.com/dirvault/dirvault/internal/vcs"
)

// Engine orchestrates the update and expand workflows for one project.
// All collaborators are injected; Engine holds no ambient state.
type Engine struct {
	cfg  config.Config
	keys *keystore.Store
	git  vcs.Git
	log  logger.Logger
}

// New returns an Engine operating on the project described by cfg.
func New(cfg config.Config, keys *keystore.Store, git vcs.Git, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, keys: keys, git: git, log: log}
}

// directoryItems enumerates the top-level plaintext directories of the
// project root. Dotted names (.git, .dirvault, ...) never participate.
// os.ReadDir returns entries sorted by name, which fixes the processing
// order for a given tree.
func (e *Engine) directoryItems() ([]string, error) {
	entries, err := os.ReadDir(e.cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("enumerating directories: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	return dirs, nil
}

// bundleItems enumerates sealed bundles by base name, in sorted order.
func (e *Engine) bundleItems() ([]string, error) {
	entries, err := os.ReadDir(e.cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("enumerating bundles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), e.cfg.BundleExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), e.cfg.BundleExt))
	}
	return names, nil
}

// filterNames keeps the names matching any of the glob patterns.
// With no patterns, every name is kept.
func filterNames(names, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return names, nil
	}

	var kept []string
	for _, name := range names {
		for _, pattern := range patterns {
			ok, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if ok {
				kept = append(kept, name)
				break
			}
		}
	}
	return kept, nil
}
