package submit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/changespec"
	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/domain"
	"github.com/bbugyi200/sase-github/internal/git"
)

// GitVCS implements VCS with the git CLI. A change's branch carries the
// change's own name.
type GitVCS struct {
	git *git.Client
}

// NewGitVCS creates a GitVCS.
func NewGitVCS(gitClient *git.Client) *GitVCS {
	return &GitVCS{git: gitClient}
}

// ResolveRevision maps a change name onto its branch name.
func (v *GitVCS) ResolveRevision(_ context.Context, name, _, _ string) string {
	return name
}

// Checkout checks out the branch, surfacing git's error text on failure.
func (v *GitVCS) Checkout(ctx context.Context, target, workDir string) (bool, string) {
	if err := v.git.Checkout(ctx, workDir, target); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// DefaultBranch returns the short name of the remote default branch,
// e.g. "main" when the remote HEAD is "origin/main".
func (v *GitVCS) DefaultBranch(ctx context.Context, workDir string) string {
	return git.ShortBranch(v.git.DefaultBranch(ctx, workDir))
}

// StatusFinalizer finalizes a merged change by flipping its record to
// Submitted. Artifact archival and notification stay with the host.
type StatusFinalizer struct {
	changes changespec.Store
	logger  zerolog.Logger
}

// NewStatusFinalizer creates a StatusFinalizer.
func NewStatusFinalizer(changes changespec.Store, logger zerolog.Logger) *StatusFinalizer {
	return &StatusFinalizer{changes: changes, logger: logger}
}

// Finalize marks the change Submitted.
func (f *StatusFinalizer) Finalize(ctx context.Context, cs *domain.ChangeSpec) (bool, string) {
	if err := f.changes.SetStatus(ctx, cs, constants.ChangeStatusSubmitted); err != nil {
		return false, err.Error()
	}
	f.logger.Info().Str("change", cs.Name).Msg("change submitted")
	return true, ""
}
