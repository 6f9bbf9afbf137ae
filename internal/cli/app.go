package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/changespec"
	"github.com/bbugyi200/sase-github/internal/config"
	"github.com/bbugyi200/sase-github/internal/git"
	"github.com/bbugyi200/sase-github/internal/github"
	"github.com/bbugyi200/sase-github/internal/pool"
	"github.com/bbugyi200/sase-github/internal/project"
	"github.com/bbugyi200/sase-github/internal/provider"
	"github.com/bbugyi200/sase-github/internal/resolver"
	"github.com/bbugyi200/sase-github/internal/runner"
	"github.com/bbugyi200/sase-github/internal/submit"
)

// app holds the assembled provider and its collaborators for one CLI
// invocation. Commands construct it after the logger is initialized and
// use it for the duration of a single subcommand.
type app struct {
	cfg       *config.Config
	github    *provider.GitHub
	providers *provider.Registry
}

// newApp loads configuration and wires the full provider graph.
func newApp(ctx context.Context, logger zerolog.Logger) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	projectsRoot, err := cfg.ProjectsRoot()
	if err != nil {
		return nil, err
	}
	poolRoot, err := cfg.PoolRoot()
	if err != nil {
		return nil, err
	}

	records := project.NewFileStore()
	changes := changespec.NewFileStore(projectsRoot, records)
	registry := pool.NewFileRegistry(poolRoot, cfg.PoolSize, pool.WithLogger(logger))

	gitClient := git.NewClient(git.WithLogger(logger))
	adapter := github.NewAdapter(records,
		github.WithProbeTimeout(cfg.ProbeTimeout),
		github.WithLogger(logger),
	)

	res := resolver.New(cfg, records, changes, gitClient, resolver.WithLogger(logger))
	allocator := runner.NewAllocator(registry, gitClient, runner.WithAllocatorLogger(logger))
	lifecycle := runner.NewLifecycle(registry, gitClient, runner.WithLifecycleLogger(logger))

	submitter := submit.New(
		cfg,
		changes,
		records,
		registry,
		adapter,
		submit.NewGitVCS(gitClient),
		changespec.NewStatusTerminator(changes, logger),
		submit.NewStatusFinalizer(changes, logger),
		submit.WithLogger(logger),
	)

	gh := provider.NewGitHub(res, allocator, lifecycle, adapter, submitter)

	providers := provider.NewRegistry()
	if err := providers.Register(gh); err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		github:    gh,
		providers: providers,
	}, nil
}
