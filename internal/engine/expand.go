package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirvault/dirvault/internal/archive"
	"github.com/dirvault/dirvault/internal/audit"
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/project"
	"github.com/dirvault/dirvault/internal/seal"
	"github.com/dirvault/dirvault/internal/utils"
)

// ExpandOptions configures the expand workflow.
type ExpandOptions struct {
	// Patterns limits which bundles are expanded. If empty, every bundle
	// in the project root participates.
	Patterns []string

	// Passphrase unlocks the encrypted private key. Zeroed by Expand.
	Passphrase []byte

	// DryRun previews which bundles would be expanded without reading the
	// key or touching the tree.
	DryRun bool
}

// ExpandResult contains the outcome of an expand run.
type ExpandResult struct {
	// Bundles lists the bundle files that were expanded.
	Bundles []string

	// Dirs lists the directories they were restored into.
	Dirs []string

	// NothingToDo is set when no bundles were found.
	NothingToDo bool

	// DryRun indicates no files were modified.
	DryRun bool
}

// Expand restores every participating bundle into its directory under the
// project root. The private key is unlocked once, before any bundle is
// touched: a bad passphrase fails the run with the tree unmodified.
//
// Extraction overlays onto existing directories without removing files that
// are absent from the bundle. A corrupt or tampered bundle aborts the run;
// directories already restored in the same run are kept.
func (e *Engine) Expand(ctx context.Context, opts ExpandOptions) (*ExpandResult, error) {
	if err := project.Validate(e.cfg.ProjectRoot); err != nil {
		return nil, err
	}

	defer func() {
		if err := e.keys.Purge(); err != nil {
			e.log.WarnfAlways("Failed to purge plaintext key: %v", err)
		}
	}()

	release, err := project.AcquireLock(e.cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	allBundles, err := e.bundleItems()
	if err != nil {
		return nil, err
	}
	if len(allBundles) == 0 {
		e.log.Infof("No bundles found in %s", e.cfg.ProjectRoot)
		return &ExpandResult{NothingToDo: true, DryRun: opts.DryRun}, nil
	}

	names, err := filterNames(allBundles, opts.Patterns)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return &ExpandResult{NothingToDo: true, DryRun: opts.DryRun}, nil
	}

	result := &ExpandResult{DryRun: opts.DryRun}
	if opts.DryRun {
		for _, name := range names {
			result.Bundles = append(result.Bundles, name+e.cfg.BundleExt)
			result.Dirs = append(result.Dirs, name)
		}
		return result, nil
	}

	priv, err := e.keys.Open(opts.Passphrase)
	utils.Zero(opts.Passphrase)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.log.Infof("Expanding %s into %s", name+e.cfg.BundleExt, name)
		if err := e.openBundle(name, priv); err != nil {
			return nil, fmt.Errorf("expanding %s: %w", name, err)
		}
		result.Bundles = append(result.Bundles, name+e.cfg.BundleExt)
		result.Dirs = append(result.Dirs, name)
	}

	audit.Log(e.cfg, audit.Entry{
		Operation: "expand",
		Dirs:      result.Dirs,
		Bundles:   result.Bundles,
	})

	return result, nil
}

func (e *Engine) openBundle(name string, priv *keystore.PrivateKey) error {
	f, err := os.Open(e.cfg.BundlePath(name))
	if err != nil {
		return fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	r, err := seal.NewReader(f, priv)
	if err != nil {
		return err
	}
	return archive.Unpack(r, filepath.Join(e.cfg.ProjectRoot, name))
}
