// Package provider defines the workspace-provider capability contract the
// automation host dispatches on, and a registry of installed providers.
package provider

import (
	"context"
	"fmt"

	"github.com/bbugyi200/sase-github/internal/domain"
	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
	"github.com/bbugyi200/sase-github/internal/runner"
)

// VCS is the full capability surface of one workspace provider.
type VCS interface {
	// Name returns the provider's workflow tag, e.g. "gh".
	Name() string

	// Metadata describes the provider to the host's directive dispatcher.
	Metadata() domain.WorkflowMetadata

	// Classify inspects a project record and returns the provider's
	// workflow tag when the project belongs to it, empty otherwise.
	Classify(ctx context.Context, projectFile string) string

	// Resolve maps a textual reference onto a workspace and checkout target.
	Resolve(ctx context.Context, ref string) (*domain.ResolvedRef, error)

	// PreRun allocates a workspace for a run and prepares it.
	PreRun(ctx context.Context, ref string, opts runner.AllocateOptions) (*domain.RunnerContext, error)

	// PostRun finishes a run, releasing and summarizing.
	PostRun(ctx context.Context, rc *domain.RunnerContext) (*domain.PostAgentResult, error)

	// Submit merges the named change.
	Submit(ctx context.Context, changeName string) (bool, string)

	// ChangeLabel returns the display label for this provider's changes.
	ChangeLabel() string
}

// Registry holds installed providers in registration order. Dispatch is a
// plain map lookup; classification walks providers in order and the first
// non-empty verdict wins.
type Registry struct {
	order  []string
	byName map[string]VCS
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]VCS)}
}

// Register adds a provider. Registering the same name twice is an error.
func (r *Registry) Register(p VCS) error {
	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider '%s' already registered: %w", name, saseerrors.ErrConfigInvalid)
	}
	r.order = append(r.order, name)
	r.byName[name] = p
	return nil
}

// Lookup returns the provider registered under a workflow tag.
func (r *Registry) Lookup(name string) (VCS, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// ClassifyAll asks each provider, in registration order, to classify the
// project; the first non-empty verdict wins. Empty means no provider
// claims the project.
func (r *Registry) ClassifyAll(ctx context.Context, projectFile string) string {
	for _, name := range r.order {
		if tag := r.byName[name].Classify(ctx, projectFile); tag != "" {
			return tag
		}
	}
	return ""
}
