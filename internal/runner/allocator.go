// Package runner manages the lifecycle of one automated run: allocating a
// workspace slot, preparing the clone before the agent starts, and
// releasing plus summarizing after it finishes.
package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/ctxutil"
	"github.com/bbugyi200/sase-github/internal/domain"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/pool"
)

// Preallocation carries a slot that an interactive front-end already
// allocated; the allocator trusts the number and directory verbatim.
type Preallocation struct {
	Num int
	Dir string
}

// AllocateOptions selects how a slot is chosen.
type AllocateOptions struct {
	// Num requests a specific slot. Nil means pick the first available.
	Num *int

	// Release marks the run as transient: the slot is released on teardown
	// and the claim is not pinned.
	Release bool

	// Preallocated, when non-nil, bypasses slot selection entirely.
	Preallocated *Preallocation
}

// Allocator claims workspace slots for runs.
type Allocator struct {
	pool   pool.Registry
	git    *git.Client
	logger zerolog.Logger
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithAllocatorLogger sets the logger for allocation steps.
func WithAllocatorLogger(logger zerolog.Logger) AllocatorOption {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// NewAllocator creates an Allocator.
func NewAllocator(registry pool.Registry, gitClient *git.Client, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		pool:   registry,
		git:    gitClient,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate picks a workspace slot for the resolved reference and claims it.
//
// Slot selection runs three mutually exclusive branches in order: a
// pre-allocated slot is trusted verbatim; an explicitly requested number is
// used after making sure its clone exists; otherwise the first available
// slot is taken. The final claim is tagged with the textual reference and
// the current process id; it is pinned exactly when the run will not
// release on teardown. A slot already held by another run is a failure,
// not a retry.
func (a *Allocator) Allocate(ctx context.Context, ref string, resolved *domain.ResolvedRef, opts AllocateOptions) (*domain.RunnerContext, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	var (
		num int
		dir string
		err error
	)
	switch {
	case opts.Preallocated != nil:
		num = opts.Preallocated.Num
		dir = opts.Preallocated.Dir
		if dir == "" {
			dir, err = a.pool.DirectoryFor(num, resolved.PrimaryWorkspaceDir)
			if err != nil {
				return nil, err
			}
		}
	case opts.Num != nil:
		num = *opts.Num
		dir, err = a.ensureSlotClone(ctx, resolved, num)
		if err != nil {
			return nil, err
		}
	default:
		num, err = a.pool.FirstAvailable(ctx, resolved.ProjectFile)
		if err != nil {
			return nil, err
		}
		dir, err = a.ensureSlotClone(ctx, resolved, num)
		if err != nil {
			return nil, err
		}
	}

	owner := "gh-" + ref
	claimed, err := a.pool.Claim(ctx, resolved.ProjectFile, num, owner, os.Getpid(), "", !opts.Release)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("workspace #%d is already claimed: %w", num, saseerrors.ErrSlotClaimed)
	}

	a.logger.Info().
		Str("ref", ref).
		Int("num", num).
		Str("dir", dir).
		Bool("pinned", !opts.Release).
		Msg("workspace allocated")

	return &domain.RunnerContext{
		ProjectName:         resolved.ProjectName,
		ProjectFile:         resolved.ProjectFile,
		PrimaryWorkspaceDir: resolved.PrimaryWorkspaceDir,
		CheckoutTarget:      resolved.CheckoutTarget,
		WorkspaceDir:        dir,
		WorkspaceNum:        num,
		ShouldRelease:       opts.Release,
	}, nil
}

// ensureSlotClone maps a slot to its directory and makes sure a clone
// exists there.
func (a *Allocator) ensureSlotClone(ctx context.Context, resolved *domain.ResolvedRef, num int) (string, error) {
	dir, err := a.pool.DirectoryFor(num, resolved.PrimaryWorkspaceDir)
	if err != nil {
		return "", err
	}
	if err := a.git.EnsureClone(ctx, resolved.PrimaryWorkspaceDir, dir); err != nil {
		return "", err
	}
	return dir, nil
}
