package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	derrors "github.com/dirvault/dirvault/internal/errors"
	logger "github.com/dirvault/dirvault/internal/logging"
)

// CLI drives the git binary in a fixed working directory.
type CLI struct {
	dir string
	log logger.Logger
}

// NewCLI returns a Git implementation running `git` commands inside dir.
func NewCLI(dir string, log logger.Logger) *CLI {
	return &CLI{dir: dir, log: log}
}

func (g *CLI) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "-A")
	return err
}

func (g *CLI) HasChanges(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (g *CLI) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

func (g *CLI) Push(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "push", remote, branch)
	return err
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	g.log.Debugf("Running git %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: git %s: %s", derrors.ErrVcs, args[0], detail)
	}

	return stdout.String(), nil
}
