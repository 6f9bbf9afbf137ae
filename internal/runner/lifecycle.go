package runner

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/ctxutil"
	"github.com/bbugyi200/sase-github/internal/domain"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/pool"
)

// Lifecycle brackets one automated run with its pre and post steps.
// The working directory of the process is never changed: every git call
// takes the workspace directory explicitly, and the caller is told where
// the run should execute.
type Lifecycle struct {
	pool   pool.Registry
	git    *git.Client
	logger zerolog.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithLifecycleLogger sets the logger for lifecycle steps.
func WithLifecycleLogger(logger zerolog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(registry pool.Registry, gitClient *git.Client, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		pool:   registry,
		git:    gitClient,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PreRun brings the run's workspace to a clean state on the checkout
// target and records the starting head into rc. A workspace whose head
// cannot be read starts with an empty HeadBefore; the run proceeds.
func (l *Lifecycle) PreRun(ctx context.Context, rc *domain.RunnerContext) error {
	head, err := l.git.PrepareWorkspace(ctx, rc.WorkspaceDir, rc.CheckoutTarget)
	if err != nil {
		return err
	}
	rc.HeadBefore = head
	l.logger.Debug().
		Str("dir", rc.WorkspaceDir).
		Str("target", rc.CheckoutTarget).
		Str("head_before", head).
		Msg("workspace prepared")
	return nil
}

// PostRun finishes the run: releases the slot when the context asks for
// it, captures a diff against the starting head, and collects run
// metadata. Metadata capture is best-effort; a git query that produces no
// output means the metadata is absent, never an error.
func (l *Lifecycle) PostRun(ctx context.Context, rc *domain.RunnerContext) (*domain.PostAgentResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if rc.ShouldRelease {
		// A checkout target without a path separator is a plain branch name
		// and doubles as the change id; an owner/repo-shaped target is not a
		// change id and is released without one.
		changeID := ""
		if !strings.Contains(rc.CheckoutTarget, "/") {
			changeID = rc.CheckoutTarget
		}
		owner := "gh-" + rc.CheckoutTarget
		if err := l.pool.Release(ctx, rc.ProjectFile, rc.WorkspaceNum, owner, changeID); err != nil {
			return nil, err
		}
	}

	result := &domain.PostAgentResult{
		DiffPath: l.git.CaptureDiff(ctx, rc.WorkspaceDir, rc.HeadBefore),
		Meta: map[string]string{
			domain.MetaWorkspace: strconv.Itoa(rc.WorkspaceNum),
		},
	}

	if rc.HeadBefore != "" {
		headNow, err := l.git.Head(ctx, rc.WorkspaceDir)
		if err == nil && headNow != rc.HeadBefore {
			subject, err := l.git.LastSubject(ctx, rc.WorkspaceDir)
			if err == nil && subject != "" {
				result.Meta[domain.MetaCommitMessage] = subject
			}
		}
	}

	return result, nil
}
