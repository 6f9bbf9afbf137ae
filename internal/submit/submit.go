// Package submit implements the submission flow: merging a change's pull
// request into the default branch after a series of safety checks, with a
// workspace slot held for the duration and released on every exit path.
package submit

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/changespec"
	"github.com/bbugyi200/sase-github/internal/config"
	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/ctxutil"
	"github.com/bbugyi200/sase-github/internal/domain"
	"github.com/bbugyi200/sase-github/internal/pool"
	"github.com/bbugyi200/sase-github/internal/project"
)

// terminationReason is recorded on hooks killed by an in-flight submission.
const terminationReason = "Killed hook running on submitted CL."

// Adapter is the slice of the GitHub adapter the submission flow needs.
type Adapter interface {
	Classify(ctx context.Context, projectFile string) string
	HasPR(ctx context.Context, workDir string) bool
	MergePR(ctx context.Context, workDir string) (bool, string)
}

// VCS is the generic version-control surface used to bring the workspace
// onto the change's branch.
type VCS interface {
	// ResolveRevision maps a change name onto the branch to check out.
	ResolveRevision(ctx context.Context, name, projectBasename, workDir string) string

	// Checkout checks out a branch, returning (false, message) on failure.
	Checkout(ctx context.Context, target, workDir string) (bool, string)

	// DefaultBranch returns the short name of the workspace's remote
	// default branch, the target the pull request merges into.
	DefaultBranch(ctx context.Context, workDir string) string
}

// Finalizer performs the host-side bookkeeping after a merge succeeded:
// flipping the change to Submitted, archiving artifacts, notifying.
type Finalizer interface {
	Finalize(ctx context.Context, cs *domain.ChangeSpec) (bool, string)
}

// Submitter merges a change's pull request.
type Submitter struct {
	cfg        *config.Config
	changes    changespec.Store
	records    project.Store
	pool       pool.Registry
	adapter    Adapter
	vcs        VCS
	terminator changespec.HookTerminator
	finalizer  Finalizer
	logger     zerolog.Logger
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger sets the logger for submission steps.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// New creates a Submitter.
func New(
	cfg *config.Config,
	changes changespec.Store,
	records project.Store,
	registry pool.Registry,
	adapter Adapter,
	vcs VCS,
	terminator changespec.HookTerminator,
	finalizer Finalizer,
	opts ...Option,
) *Submitter {
	s := &Submitter{
		cfg:        cfg,
		changes:    changes,
		records:    records,
		pool:       registry,
		adapter:    adapter,
		vcs:        vcs,
		terminator: terminator,
		finalizer:  finalizer,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit merges the pull request of the named change.
//
// The outcome is (ok, detail): a non-GitHub change declines with
// (false, "") so another provider can handle it; every other failure
// carries a human-readable explanation of the violated precondition or
// the failing tool's output. The workspace slot claimed for the checkout
// is released on every exit path.
func (s *Submitter) Submit(ctx context.Context, changeName string) (bool, string) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return false, err.Error()
	}

	cs, err := s.changes.Find(ctx, changeName)
	if err != nil {
		return false, fmt.Sprintf("ChangeSpec '%s' not found", changeName)
	}

	if s.adapter.Classify(ctx, cs.ProjectFile) != constants.WorkflowType {
		// Not ours; let another provider handle it.
		return false, ""
	}

	if err := s.terminator.TerminateRunning(ctx, cs, terminationReason); err != nil {
		return false, fmt.Sprintf("Failed to terminate running hooks: %v", err)
	}

	all, err := s.changes.FindAll(ctx)
	if err != nil {
		return false, fmt.Sprintf("Failed to scan change records: %v", err)
	}
	if changespec.HasActiveChildren(cs, all) {
		return false, "Cannot submit: other ChangeSpecs have this one as their " +
			"parent and are not Submitted, Reverted, or Archived"
	}

	workspaceDir, err := s.records.WorkspaceDir(ctx, cs.ProjectFile)
	if err != nil {
		return false, err.Error()
	}
	if workspaceDir == "" {
		return false, "WORKSPACE_DIR is not set for this project"
	}

	num, err := s.pool.FirstAvailable(ctx, cs.ProjectFile)
	if err != nil {
		return false, fmt.Sprintf("Failed to find an available workspace: %v", err)
	}
	slotDir, err := s.pool.DirectoryFor(num, workspaceDir)
	if err != nil {
		return false, fmt.Sprintf("Failed to get workspace directory: %v", err)
	}

	owner := "submit-" + changeName
	claimed, err := s.pool.Claim(ctx, cs.ProjectFile, num, owner, os.Getpid(), changeName, false)
	if err != nil || !claimed {
		return false, fmt.Sprintf("Failed to claim workspace #%d", num)
	}
	defer func() {
		if err := s.pool.Release(ctx, cs.ProjectFile, num, owner, changeName); err != nil {
			s.logger.Warn().Err(err).Int("num", num).Msg("failed to release workspace")
		} else {
			s.logger.Info().Int("num", num).Msg("released workspace")
		}
	}()

	branch := s.vcs.ResolveRevision(ctx, changeName, cs.ProjectBasename, slotDir)
	if ok, detail := s.vcs.Checkout(ctx, branch, slotDir); !ok {
		return false, fmt.Sprintf("Failed to checkout branch: %s", detail)
	}

	mergeTarget := s.vcs.DefaultBranch(ctx, slotDir)
	s.logger.Info().Str("change", changeName).Str("into", mergeTarget).Msg("merging PR")

	if !s.adapter.HasPR(ctx, slotDir) {
		return false, "GitHub project has no PR for this branch. Create a PR first with #pr."
	}

	if s.cfg.GitHubUsername == "" {
		return false, "Cannot submit GitHub PR: 'github_username' is not configured " +
			"in sase.yml. Add 'github_username: <your_username>' to " +
			"~/.config/sase/sase.yml"
	}

	if ok, detail := s.adapter.MergePR(ctx, slotDir); !ok {
		if detail == "" {
			return false, "gh pr merge failed"
		}
		return false, fmt.Sprintf("gh pr merge failed: %s", detail)
	}

	return s.finalizer.Finalize(ctx, cs)
}
