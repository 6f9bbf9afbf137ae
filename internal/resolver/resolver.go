// Package resolver turns textual references into resolved workspaces.
//
// A reference resolves through three strategies in fixed order: a
// repository path ("owner/project"), a project shorthand (the bare name of
// an already-registered project), and finally the name of a change record.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/changespec"
	"github.com/bbugyi200/sase-github/internal/config"
	"github.com/bbugyi200/sase-github/internal/ctxutil"
	"github.com/bbugyi200/sase-github/internal/domain"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/project"
)

// Resolver resolves references against the local project registry,
// cloning repositories that are referenced but not yet on disk.
type Resolver struct {
	cfg     *config.Config
	records project.Store
	changes changespec.Store
	git     *git.Client
	logger  zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for resolution steps.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(cfg *config.Config, records project.Store, changes changespec.Store, gitClient *git.Client, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:     cfg,
		records: records,
		changes: changes,
		git:     gitClient,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a reference onto a project workspace and checkout target.
// References containing a slash are repository paths; their failures are
// final. Bare references try project shorthand first and fall back to
// change-name lookup.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*domain.ResolvedRef, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("cannot resolve ref '%s': %w", ref, saseerrors.ErrRefNotResolved)
	}

	if strings.Contains(ref, "/") {
		return r.resolveRepoPath(ctx, ref)
	}

	resolved, err := r.resolveShorthand(ctx, ref)
	if err != nil {
		return nil, err
	}
	if resolved != nil {
		return resolved, nil
	}

	return r.resolveChangeName(ctx, ref)
}

// resolveRepoPath handles "owner/project" references: derive the workspace
// directory under the local workspace root, clone it if absent, and record
// it in the project file.
func (r *Resolver) resolveRepoPath(ctx context.Context, ref string) (*domain.ResolvedRef, error) {
	parts := strings.Split(strings.Trim(ref, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repo path '%s': expected 'owner/project': %w", ref, saseerrors.ErrInvalidRepoPath)
	}
	owner, name := parts[0], parts[1]

	workspacesRoot, err := r.cfg.WorkspacesRoot()
	if err != nil {
		return nil, err
	}
	primary := filepath.Join(workspacesRoot, owner, name) + string(os.PathSeparator)

	projectFile, err := r.cfg.ProjectFilePath(name)
	if err != nil {
		return nil, err
	}

	existing, err := r.records.WorkspaceDir(ctx, projectFile)
	if err != nil {
		return nil, err
	}
	if existing != "" && filepath.Clean(existing) != filepath.Clean(primary) {
		return nil, fmt.Errorf("WORKSPACE_DIR conflict for '%s': existing=%s, derived=%s: %w",
			name, existing, primary, saseerrors.ErrWorkspaceDirConflict)
	}

	if _, err := os.Stat(filepath.Clean(primary)); os.IsNotExist(err) {
		url := r.cloneURL(owner, name)
		r.logger.Info().Str("url", url).Str("dir", primary).Msg("cloning repository")
		if err := r.git.Clone(ctx, url, filepath.Clean(primary)); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat workspace '%s': %w", primary, err)
	}

	if err := r.records.SetWorkspaceDir(ctx, projectFile, primary); err != nil {
		return nil, err
	}

	return &domain.ResolvedRef{
		ProjectName:         name,
		ProjectFile:         projectFile,
		PrimaryWorkspaceDir: primary,
		CheckoutTarget:      r.git.DefaultBranch(ctx, filepath.Clean(primary)),
	}, nil
}

// resolveShorthand handles bare project names. A registered project
// without a recorded workspace directory does not match; the reference
// falls through to change-name lookup.
func (r *Resolver) resolveShorthand(ctx context.Context, ref string) (*domain.ResolvedRef, error) {
	projectFile, err := r.cfg.ProjectFilePath(ref)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(projectFile); err != nil {
		return nil, nil //nolint:nilnil // absence means try the next strategy
	}

	workspaceDir, err := r.records.WorkspaceDir(ctx, projectFile)
	if err != nil {
		return nil, err
	}
	if workspaceDir == "" {
		return nil, nil //nolint:nilnil // record without a workspace, try change names
	}

	return &domain.ResolvedRef{
		ProjectName:         ref,
		ProjectFile:         projectFile,
		PrimaryWorkspaceDir: withTrailingSeparator(workspaceDir),
		CheckoutTarget:      r.git.DefaultBranch(ctx, filepath.Clean(workspaceDir)),
	}, nil
}

// resolveChangeName handles references naming an existing change record.
// The change's branch lives on the remote, so the checkout target is its
// remote-tracking ref.
func (r *Resolver) resolveChangeName(ctx context.Context, ref string) (*domain.ResolvedRef, error) {
	cs, err := r.changes.Find(ctx, ref)
	if err != nil {
		if errors.Is(err, saseerrors.ErrChangeNotFound) {
			return nil, fmt.Errorf("cannot resolve ref '%s': %w", ref, saseerrors.ErrRefNotResolved)
		}
		return nil, err
	}

	workspaceDir, err := r.records.WorkspaceDir(ctx, cs.ProjectFile)
	if err != nil {
		return nil, err
	}
	if workspaceDir == "" {
		return nil, fmt.Errorf("change '%s' found in %s but WORKSPACE_DIR is not set: %w",
			ref, cs.FilePath, saseerrors.ErrWorkspaceDirNotSet)
	}

	return &domain.ResolvedRef{
		ProjectName:         cs.ProjectBasename,
		ProjectFile:         cs.ProjectFile,
		PrimaryWorkspaceDir: withTrailingSeparator(workspaceDir),
		CheckoutTarget:      "origin/" + ref,
	}, nil
}

// cloneURL picks SSH for the user's own repositories and HTTPS otherwise.
func (r *Resolver) cloneURL(owner, name string) string {
	if r.cfg.GitHubUsername != "" && r.cfg.GitHubUsername == owner {
		return fmt.Sprintf("git@github.com:%s/%s.git", owner, name)
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
}

// withTrailingSeparator normalizes a directory to end in the path
// separator, matching how workspace directories are recorded.
func withTrailingSeparator(dir string) string {
	sep := string(os.PathSeparator)
	if strings.HasSuffix(dir, sep) {
		return dir
	}
	return dir + sep
}
