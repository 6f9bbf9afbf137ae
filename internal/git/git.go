// Package git shells out to the git CLI for workspace management.
// This file implements the repository operations the workflow needs.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/ctxutil"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
)

// FallbackDefaultBranch is used when the remote HEAD cannot be read.
const FallbackDefaultBranch = "origin/main"

// File permission for captured diff files.
const diffFilePerm = 0o600

// Client runs git operations against repository working directories.
// The zero value is not usable; construct with NewClient.
type Client struct {
	exec   Executor
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		exec:   &ExecExecutor{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithExecutor sets a custom command executor (for testing).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		c.exec = exec
	}
}

// WithLogger sets the logger for git operations.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// run executes a git command and wraps failures with ErrGitOperation,
// including stderr for debugging.
func (c *Client) run(ctx context.Context, workDir string, args ...string) (string, error) {
	stdout, stderr, err := c.exec.Execute(ctx, workDir, "git", args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr != "" {
			return "", fmt.Errorf("git %s failed: %s: %w", args[0], stderr, saseerrors.ErrGitOperation)
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], saseerrors.ErrGitOperation)
	}
	return stdout, nil
}

// Head returns the commit hash of the working directory's HEAD.
func (c *Client) Head(ctx context.Context, workDir string) (string, error) {
	return c.run(ctx, workDir, "rev-parse", "HEAD")
}

// LastSubject returns the subject line of the newest commit.
func (c *Client) LastSubject(ctx context.Context, workDir string) (string, error) {
	return c.run(ctx, workDir, "log", "-1", "--pretty=%s")
}

// RemoteOriginURL returns the URL of the origin remote.
func (c *Client) RemoteOriginURL(ctx context.Context, workDir string) (string, error) {
	return c.run(ctx, workDir, "config", "--get", "remote.origin.url")
}

// DefaultBranch returns the remote default branch as a remote-tracking ref
// (e.g. "origin/main"). Falls back to "origin/main" when the remote HEAD
// symbolic ref is not recorded locally.
func (c *Client) DefaultBranch(ctx context.Context, workDir string) string {
	out, err := c.run(ctx, workDir, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err != nil || out == "" {
		c.logger.Debug().Err(err).Str("dir", workDir).Msg("remote HEAD not recorded, using fallback default branch")
		return FallbackDefaultBranch
	}
	return out
}

// Checkout checks out the given target (branch, remote-tracking ref, or
// commit) in the working directory.
func (c *Client) Checkout(ctx context.Context, workDir, target string) error {
	if target == "" {
		return fmt.Errorf("checkout target: %w", saseerrors.ErrEmptyValue)
	}
	_, err := c.run(ctx, workDir, "checkout", target)
	return err
}

// Fetch downloads objects and refs from origin.
func (c *Client) Fetch(ctx context.Context, workDir string) error {
	_, err := c.run(ctx, workDir, "fetch", "origin")
	return err
}

// Clone clones a repository URL into destDir. Clone failures carry git's
// stderr in the error.
func (c *Client) Clone(ctx context.Context, url, destDir string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	parent := filepath.Dir(filepath.Clean(destDir))
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("failed to create parent directory '%s': %w", parent, err)
	}
	_, err := c.run(ctx, parent, "clone", url, destDir)
	if err != nil {
		return fmt.Errorf("failed to clone '%s': %w", url, err)
	}
	return nil
}

// EnsureClone makes sure workDir holds a clone of the repository whose
// primary copy lives at primaryDir. An existing directory is left alone.
// New clones copy from the local primary and then point origin at the
// primary's own remote so fetch and push reach the hosting service.
func (c *Client) EnsureClone(ctx context.Context, primaryDir, workDir string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(workDir); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat workspace '%s': %w", workDir, err)
	}

	primary := filepath.Clean(primaryDir)
	if err := c.Clone(ctx, primary, workDir); err != nil {
		return err
	}

	remoteURL, err := c.RemoteOriginURL(ctx, primary)
	if err != nil || remoteURL == "" {
		// The primary has no usable remote; leave origin pointing at it.
		c.logger.Warn().Err(err).Str("primary", primary).Msg("primary workspace has no origin remote")
		return nil
	}
	if _, err := c.run(ctx, workDir, "remote", "set-url", "origin", remoteURL); err != nil {
		return fmt.Errorf("failed to point origin at '%s': %w", remoteURL, err)
	}
	return nil
}

// PrepareWorkspace brings a workspace up to date for a run: fetch origin,
// check out the target, discard local modifications. Each step is
// best-effort; a dirty or offline workspace must not block the run.
// Returns the resulting HEAD commit, empty when no head could be read.
func (c *Client) PrepareWorkspace(ctx context.Context, workDir, checkoutTarget string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	if err := c.Fetch(ctx, workDir); err != nil {
		c.logger.Warn().Err(err).Str("dir", workDir).Msg("fetch failed, continuing with local refs")
	}

	target := checkoutTarget
	if target == "" {
		target = c.DefaultBranch(ctx, workDir)
	}
	if err := c.Checkout(ctx, workDir, target); err != nil {
		c.logger.Warn().Err(err).Str("target", target).Msg("checkout failed, continuing on current branch")
	}
	if _, err := c.run(ctx, workDir, "reset", "--hard"); err != nil {
		c.logger.Warn().Err(err).Str("dir", workDir).Msg("hard reset failed, workspace may carry stale edits")
	}

	head, err := c.Head(ctx, workDir)
	if err != nil {
		c.logger.Warn().Err(err).Str("dir", workDir).Msg("could not read workspace head")
		return "", nil
	}
	return head, nil
}

// CaptureDiff writes the diff between headBefore and the current working
// tree to a uniquely named temp file and returns its path. An unknown
// starting head, an empty diff, or any git failure yields no path; diff
// capture never fails a run.
func (c *Client) CaptureDiff(ctx context.Context, workDir, headBefore string) string {
	if headBefore == "" {
		return ""
	}

	diff, err := c.run(ctx, workDir, "diff", headBefore)
	if err != nil {
		c.logger.Warn().Err(err).Str("head", headBefore).Msg("diff capture failed")
		return ""
	}
	if diff == "" {
		return ""
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("sase-gh-%s.diff", uuid.NewString()))
	if err := os.WriteFile(path, []byte(diff+"\n"), diffFilePerm); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("failed to write diff file")
		return ""
	}
	return path
}

// ShortBranch strips the remote prefix from a remote-tracking ref, turning
// "origin/main" into "main". Refs without a remote prefix pass through.
func ShortBranch(ref string) string {
	if rest, ok := strings.CutPrefix(ref, "origin/"); ok {
		return rest
	}
	return ref
}
