// Package vcs defines the version-control collaborator used by the sync
// engine: stage everything, commit, push. The engine surfaces failures as
// ErrVcs and never retries; the working tree's bundles stay valid on local
// disk either way, so a rerun converges.
package vcs
