package changespec

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bbugyi200/sase-github/internal/constants"
	"github.com/bbugyi200/sase-github/internal/domain"
)

// HookTerminator stops automation hooks still running against a change
// before an operation that invalidates them, such as submission.
type HookTerminator interface {
	// TerminateRunning terminates any running hooks for the change and
	// persists the termination, so interrupted work is not mistaken for
	// in-flight work later.
	TerminateRunning(ctx context.Context, cs *domain.ChangeSpec, reason string) error
}

// StatusTerminator implements HookTerminator by marking a Running change as
// Killed in its record. The host's own process supervisor notices the status
// flip and reaps the hook processes; this plugin never signals processes
// directly.
type StatusTerminator struct {
	store  Store
	logger zerolog.Logger
}

// NewStatusTerminator creates a StatusTerminator backed by the given store.
func NewStatusTerminator(store Store, logger zerolog.Logger) *StatusTerminator {
	return &StatusTerminator{store: store, logger: logger}
}

// TerminateRunning marks a Running change as Killed.
func (t *StatusTerminator) TerminateRunning(ctx context.Context, cs *domain.ChangeSpec, reason string) error {
	if cs.Status != constants.ChangeStatusRunning {
		return nil
	}
	t.logger.Info().
		Str("change", cs.Name).
		Str("reason", reason).
		Msg("terminating running hook")
	return t.store.SetStatus(ctx, cs, constants.ChangeStatusKilled)
}
