package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dirvault/dirvault/internal/archive"
	"github.com/dirvault/dirvault/internal/audit"
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/project"
	"github.com/dirvault/dirvault/internal/seal"
)

// DefaultCommitMessage is used when UpdateOptions does not name one.
const DefaultCommitMessage = "dirvault update"

// UpdateOptions configures the update workflow.
type UpdateOptions struct {
	// Patterns limits which directories are sealed. If empty, every
	// top-level directory participates. The ignore state always covers all
	// directories regardless of patterns.
	Patterns []string

	// DryRun previews which bundles would be written without making changes.
	DryRun bool

	// NoPush seals and regenerates ignore state but skips the VCS hand-off.
	NoPush bool

	// CommitMessage overrides DefaultCommitMessage.
	CommitMessage string
}

// UpdateResult contains the outcome of an update run.
type UpdateResult struct {
	// Dirs lists the directories that were sealed.
	Dirs []string

	// Bundles lists the bundle files that were written, relative to the root.
	Bundles []string

	// NothingToDo is set when no directories were found; the run succeeded
	// without writing anything.
	NothingToDo bool

	// DryRun indicates no files were modified.
	DryRun bool

	// Committed and Pushed report the VCS hand-off outcome.
	Committed bool
	Pushed    bool
}

// Update seals every participating directory into its bundle, regenerates
// the ignore state, and hands off to version control.
//
// Per-item failure aborts the whole run; bundles already written in the same
// run stay on disk, so a rerun after fixing the cause converges. A VCS
// failure is returned as ErrVcs alongside the partially filled result: the
// local artifacts are valid and a retried update is safe.
func (e *Engine) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	if err := project.Validate(e.cfg.ProjectRoot); err != nil {
		return nil, err
	}

	// A plaintext key materialized by an earlier decrypt-key must not
	// outlive this command either.
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

	allDirs, err := e.directoryItems()
	if err != nil {
		return nil, err
	}
	if len(allDirs) == 0 {
		e.log.Infof("No directories found in %s", e.cfg.ProjectRoot)
		return &UpdateResult{NothingToDo: true, DryRun: opts.DryRun}, nil
	}

	dirs, err := filterNames(allDirs, opts.Patterns)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return &UpdateResult{NothingToDo: true, DryRun: opts.DryRun}, nil
	}

	pub, err := e.keys.LoadPublicKey()
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Dirs: dirs, DryRun: opts.DryRun}

	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bundleName := name + e.cfg.BundleExt
		if opts.DryRun {
			result.Bundles = append(result.Bundles, bundleName)
			continue
		}

		e.log.Infof("Sealing %s into %s", name, bundleName)
		if err := e.sealDirectory(name, pub); err != nil {
			return nil, fmt.Errorf("sealing %s: %w", name, err)
		}
		result.Bundles = append(result.Bundles, bundleName)
	}

	if opts.DryRun {
		return result, nil
	}

	if err := e.writeIgnoreState(allDirs); err != nil {
		return nil, err
	}

	entry := audit.Entry{
		Operation: "update",
		Dirs:      dirs,
		Bundles:   result.Bundles,
		Remote:    e.cfg.Remote,
		Branch:    e.cfg.Branch,
	}

	if opts.NoPush {
		audit.Log(e.cfg, entry)
		return result, nil
	}

	if err := e.publish(ctx, opts.CommitMessage, result); err != nil {
		audit.Log(e.cfg, entry)
		return result, err
	}
	entry.Pushed = result.Pushed
	audit.Log(e.cfg, entry)

	return result, nil
}

// sealDirectory pipes pack output straight into the seal writer, landing in
// a temp file that is renamed over the destination bundle. The bundle is
// either the complete prior version or the complete new one, never a torso.
func (e *Engine) sealDirectory(name string, pub keystore.PublicKey) error {
	src := filepath.Join(e.cfg.ProjectRoot, name)

	tmp, err := os.CreateTemp(e.cfg.ProjectRoot, "."+name+e.cfg.BundleExt+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp bundle: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w, err := seal.NewWriter(tmp, pub)
	if err != nil {
		return err
	}
	if err := archive.Pack(src, w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("finalizing temp bundle: %w", err)
	}

	if err := os.Rename(tmp.Name(), e.cfg.BundlePath(name)); err != nil {
		return fmt.Errorf("replacing bundle: %w", err)
	}
	return nil
}

// writeIgnoreState regenerates the ignore artifact in full: the plaintext
// key filename plus every current directory name. No incremental diffing
// against prior content.
func (e *Engine) writeIgnoreState(dirs []string) error {
	var b strings.Builder
	b.WriteString("# Generated by dirvault. Regenerated in full on every update; do not edit.\n")
	fmt.Fprintf(&b, "/%s\n", e.cfg.KeyFile)
	for _, name := range dirs {
		fmt.Fprintf(&b, "/%s/\n", name)
	}

	// #nosec G306 -- the ignore file is tracked project state.
	if err := os.WriteFile(e.cfg.IgnorePath(), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing ignore state: %w", err)
	}
	return nil
}

// publish stages, commits when there are changes, and pushes.
func (e *Engine) publish(ctx context.Context, message string, result *UpdateResult) error {
	if message == "" {
		message = DefaultCommitMessage
	}

	if err := e.git.StageAll(ctx); err != nil {
		return err
	}

	changed, err := e.git.HasChanges(ctx)
	if err != nil {
		return err
	}
	if changed {
		if err := e.git.Commit(ctx, message); err != nil {
			return err
		}
		result.Committed = true
	} else {
		e.log.Infof("Working tree unchanged, nothing to commit")
	}

	// Push unconditionally: an earlier run may have committed but failed to
	// push, and push is idempotent when the remote is current.
	if err := e.git.Push(ctx, e.cfg.Remote, e.cfg.Branch); err != nil {
		return err
	}
	result.Pushed = true
	return nil
}
