// Package github adapts the gh CLI into the workflow actions the
// automation host invokes: PR lookup, mailing, merging, and project
// classification.
package github

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/project"
)

// remoteURLPrefixes mark an origin URL as pointing at a hosting service
// rather than a local path.
var remoteURLPrefixes = []string{"http://", "https://", "git@", "ssh://"}

// Adapter runs GitHub-specific workflow actions through the gh CLI.
type Adapter struct {
	exec         git.Executor
	records      project.Store
	probeTimeout time.Duration
	logger       zerolog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// NewAdapter creates an Adapter reading project records from the given
// store.
func NewAdapter(records project.Store, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		exec:         &git.ExecExecutor{},
		records:      records,
		probeTimeout: constants.DefaultProbeTimeout,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithExecutor sets a custom command executor (for testing).
func WithExecutor(exec git.Executor) AdapterOption {
	return func(a *Adapter) {
		a.exec = exec
	}
}

// WithProbeTimeout sets the timeout for the remote URL probe during
// classification.
func WithProbeTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.probeTimeout = d
	}
}

// WithLogger sets the logger for adapter operations.
func WithLogger(logger zerolog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// ChangeLabel returns how this workflow names its changes in user-facing
// output.
func (a *Adapter) ChangeLabel() string {
	return constants.ChangeLabel
}

// ChangeURL returns the URL of the pull request for the branch checked out
// in workDir. The boolean is always true: a branch without a PR is an
// answer, not a failure.
func (a *Adapter) ChangeURL(ctx context.Context, workDir string) (bool, string) {
	out, _, err := a.exec.Execute(ctx, workDir, "gh", "pr", "view", "--json", "url", "-q", ".url")
	if err != nil {
		a.logger.Debug().Err(err).Str("dir", workDir).Msg("no pull request for branch")
		return true, ""
	}
	return true, out
}

// ChangeNumber returns the number of the pull request for the branch
// checked out in workDir, empty when there is none.
func (a *Adapter) ChangeNumber(ctx context.Context, workDir string) (bool, string) {
	out, _, err := a.exec.Execute(ctx, workDir, "gh", "pr", "view", "--json", "number", "-q", ".number")
	if err != nil {
		a.logger.Debug().Err(err).Str("dir", workDir).Msg("no pull request for branch")
		return true, ""
	}
	return true, out
}

// HasPR reports whether the branch checked out in workDir already has a
// pull request.
func (a *Adapter) HasPR(ctx context.Context, workDir string) bool {
	out, _, err := a.exec.Execute(ctx, workDir, "gh", "pr", "view", "--json", "number", "-q", ".number")
	return err == nil && out != ""
}

// Mail pushes the given revision to origin and makes sure a pull request
// exists for it. An existing PR is left untouched; a missing one is
// created from the pushed commits. Returns (false, message) on failure.
func (a *Adapter) Mail(ctx context.Context, revision, workDir string) (bool, string) {
	_, stderr, err := a.exec.Execute(ctx, workDir, "git", "push", "-u", "origin", revision)
	if err != nil {
		return false, fmt.Sprintf("git push failed: %s", stderr)
	}

	if _, _, err := a.exec.Execute(ctx, workDir, "gh", "pr", "view", "--json", "number", "-q", ".number"); err == nil {
		return true, ""
	}

	if _, stderr, err := a.exec.Execute(ctx, workDir, "gh", "pr", "create", "--fill"); err != nil {
		return false, fmt.Sprintf("gh pr create failed: %s", stderr)
	}
	return true, ""
}

// MergePR merges the pull request of the branch checked out in workDir and
// deletes the remote branch. Returns (false, message) on failure.
func (a *Adapter) MergePR(ctx context.Context, workDir string) (bool, string) {
	stdout, stderr, err := a.exec.Execute(ctx, workDir, "gh", "pr", "merge", "--merge", "--delete-branch")
	if err != nil {
		msg := stderr
		if msg == "" {
			msg = stdout
		}
		return false, msg
	}
	return true, ""
}

// Classify reports whether the project described by projectFile is a
// GitHub-hosted workspace, returning the workflow type or empty.
//
// A project qualifies when its recorded workspace directory exists with a
// .git subdirectory, the record carries no bare-repo key, and the origin
// remote is either unset or points at a hosting URL. The remote probe runs
// under a short timeout: a probe that cannot read the URL at all leaves
// the verdict at "gh" rather than escalating.
func (a *Adapter) Classify(ctx context.Context, projectFile string) string {
	fields, err := a.records.Fields(ctx, projectFile)
	if err != nil {
		a.logger.Debug().Err(err).Str("project_file", projectFile).Msg("unreadable project record")
		return ""
	}

	workspaceDir := fields[constants.KeyWorkspaceDir]
	if workspaceDir == "" {
		return ""
	}
	if _, ok := fields[constants.KeyBareRepoDir]; ok {
		return ""
	}
	if info, err := os.Stat(filepath.Join(workspaceDir, ".git")); err != nil || !info.IsDir() {
		return ""
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	url, _, err := a.exec.Execute(probeCtx, workspaceDir, "git", "config", "--get", "remote.origin.url")
	if err != nil {
		// The URL could not be read; treat as an unset remote.
		a.logger.Debug().Err(err).Str("dir", workspaceDir).Msg("origin remote probe failed")
		return constants.WorkflowType
	}
	if url == "" || isRemoteURL(url) {
		return constants.WorkflowType
	}
	return ""
}

// isRemoteURL reports whether a git remote URL points at a hosting service
// rather than a local filesystem path.
func isRemoteURL(url string) bool {
	for _, prefix := range remoteURLPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}
