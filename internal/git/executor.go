// Package git shells out to the git CLI for workspace management.
// This file defines the Executor abstraction over external commands.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	saseerrors "github.com/bbugyi200/sase-github/internal/errors"
)

// Executor executes shell commands, capturing stdout and stderr separately.
// Tests substitute a mock to avoid touching real repositories.
type Executor interface {
	// Execute runs a command in workDir and returns trimmed stdout and
	// stderr. A non-zero exit returns the raw exec error; a command that
	// cannot be started at all (tool absent from the environment) is
	// wrapped with ErrToolInvocation. Callers wrap further.
	Execute(ctx context.Context, workDir, name string, args ...string) (string, string, error)
}

// ExecExecutor is the default Executor backed by os/exec.
type ExecExecutor struct{}

// Execute runs a command using the standard exec package.
func (e *ExecExecutor) Execute(ctx context.Context, workDir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check for context cancellation
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		// A non-zero exit carries the tool's own diagnostics in stderr.
		// Anything else means the process never ran (missing binary,
		// permission problem).
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", "", fmt.Errorf("failed to run %s: %v: %w", name, err, saseerrors.ErrToolInvocation)
		}
		return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
	}

	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), nil
}
