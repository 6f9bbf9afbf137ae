package provider

import (
	"context"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/domain"
	"github.com/bbugyi200/sase-github/internal/github"
	"github.com/bbugyi200/sase-github/internal/resolver"
	"github.com/bbugyi200/sase-github/internal/runner"
	"github.com/bbugyi200/sase-github/internal/submit"
)

// ghRefPattern recognizes "#gh:<ref>" and "#gh(<ref>)" directives at a word
// boundary. The leading whitespace alternative consumes the separator, so
// matchers read the ref from the capture groups, not the match bounds.
const ghRefPattern = `(?:^|\s)#gh(?::([a-zA-Z0-9_./-]+)|\(([^)]+)\))`

// GitHub is the workspace provider for GitHub-hosted projects.
type GitHub struct {
	resolver  *resolver.Resolver
	allocator *runner.Allocator
	lifecycle *runner.Lifecycle
	adapter   *github.Adapter
	submitter *submit.Submitter
}

// NewGitHub assembles the GitHub provider from its collaborators.
func NewGitHub(
	res *resolver.Resolver,
	allocator *runner.Allocator,
	lifecycle *runner.Lifecycle,
	adapter *github.Adapter,
	submitter *submit.Submitter,
) *GitHub {
	return &GitHub{
		resolver:  res,
		allocator: allocator,
		lifecycle: lifecycle,
		adapter:   adapter,
		submitter: submitter,
	}
}

// Name returns the workflow tag.
func (g *GitHub) Name() string {
	return constants.WorkflowType
}

// Metadata describes the provider to the host's directive dispatcher.
func (g *GitHub) Metadata() domain.WorkflowMetadata {
	return domain.WorkflowMetadata{
		WorkflowType:          constants.WorkflowType,
		RefPattern:            ghRefPattern,
		DisplayName:           "GitHub",
		PreAllocatedEnvPrefix: constants.EnvPrefix,
	}
}

// Classify reports whether the project is a GitHub-hosted workspace.
func (g *GitHub) Classify(ctx context.Context, projectFile string) string {
	return g.adapter.Classify(ctx, projectFile)
}

// Resolve maps a reference onto a workspace and checkout target.
func (g *GitHub) Resolve(ctx context.Context, ref string) (*domain.ResolvedRef, error) {
	return g.resolver.Resolve(ctx, ref)
}

// PreRun resolves the reference, allocates a slot, and prepares its clone.
func (g *GitHub) PreRun(ctx context.Context, ref string, opts runner.AllocateOptions) (*domain.RunnerContext, error) {
	resolved, err := g.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	rc, err := g.allocator.Allocate(ctx, ref, resolved, opts)
	if err != nil {
		return nil, err
	}
	if err := g.lifecycle.PreRun(ctx, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// PostRun finishes the run.
func (g *GitHub) PostRun(ctx context.Context, rc *domain.RunnerContext) (*domain.PostAgentResult, error) {
	return g.lifecycle.PostRun(ctx, rc)
}

// Submit merges the named change.
func (g *GitHub) Submit(ctx context.Context, changeName string) (bool, string) {
	return g.submitter.Submit(ctx, changeName)
}

// Mail pushes the revision and ensures a pull request exists for it.
func (g *GitHub) Mail(ctx context.Context, revision, workDir string) (bool, string) {
	return g.adapter.Mail(ctx, revision, workDir)
}

// ChangeURL returns the pull request URL for the branch in workDir.
func (g *GitHub) ChangeURL(ctx context.Context, workDir string) (bool, string) {
	return g.adapter.ChangeURL(ctx, workDir)
}

// ChangeNumber returns the pull request number for the branch in workDir.
func (g *GitHub) ChangeNumber(ctx context.Context, workDir string) (bool, string) {
	return g.adapter.ChangeNumber(ctx, workDir)
}

// ChangeLabel returns how GitHub changes are labeled in output.
func (g *GitHub) ChangeLabel() string {
	return g.adapter.ChangeLabel()
}
