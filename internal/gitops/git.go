// Package gitops is the version-control capability. The loop only needs
// revision markers, hard resets for rollback, and branch checkout at
// startup; everything shells out to the git CLI.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/x0georgiev/gushter/internal/app"
)

// Git exposes the version-control operations the loop depends on.
type Git interface {
	CurrentRevision(ctx context.Context) (string, error)
	ResetHard(ctx context.Context, revision string) error
	EnsureBranch(ctx context.Context, name string) error
	CommitAll(ctx context.Context, message string) error
	ChangedFilesSince(ctx context.Context, revision string) ([]string, error)
}

// CLI implements Git by running the git binary in a working directory.
type CLI struct {
	workDir string
	log     app.Logger
}

// NewCLI creates a git capability rooted at workDir ("" for the process cwd).
func NewCLI(workDir string, log app.Logger) *CLI {
	if log == nil {
		log = app.NopLogger()
	}
	return &CLI{workDir: workDir, log: log}
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if g.workDir != "" {
		cmd.Dir = g.workDir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w (output: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentRevision returns the HEAD commit hash.
func (g *CLI) CurrentRevision(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "HEAD")
}

// ResetHard discards the working tree and history back to revision.
func (g *CLI) ResetHard(ctx context.Context, revision string) error {
	g.log.Info("rolling back working tree to %s", shortRev(revision))
	if _, err := g.run(ctx, "reset", "--hard", revision); err != nil {
		return err
	}
	// Generated files outside the index would survive the reset otherwise.
	_, err := g.run(ctx, "clean", "-fd")
	return err
}

// EnsureBranch checks out the named branch, creating it when absent.
func (g *CLI) EnsureBranch(ctx context.Context, name string) error {
	current, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return err
	}
	if current == name {
		return nil
	}
	if _, err := g.run(ctx, "checkout", name); err == nil {
		return nil
	}
	g.log.Info("creating branch %s", name)
	_, err = g.run(ctx, "checkout", "-b", name)
	return err
}

// CommitAll stages everything and commits with the given message.
func (g *CLI) CommitAll(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// ChangedFilesSince lists paths touched between revision and the working
// tree.
func (g *CLI) ChangedFilesSince(ctx context.Context, revision string) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only", revision)
	if err != nil {
		return nil, err
	}
	return SplitFileList(out), nil
}

// SplitFileList parses newline-separated git output into a path slice.
func SplitFileList(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

func shortRev(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
