package vcs

import "context"

// Git is the narrow interface the sync engine needs from version control.
// It is injected so the engine can be exercised without a git binary or a
// real repository.
type Git interface {
	// StageAll stages every change in the working tree.
	StageAll(ctx context.Context) error

	// HasChanges reports whether anything is staged or modified.
	HasChanges(ctx context.Context) (bool, error)

	// Commit records the staged changes with the given message.
	Commit(ctx context.Context, message string) error

	// Push publishes the branch to the named remote.
	Push(ctx context.Context, remote, branch string) error
}
