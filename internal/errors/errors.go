// Package errors provides centralized error handling for sase-github.
//
// This package defines sentinel errors used for programmatic error
// categorization throughout the plugin. All error types can be checked
// using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrRefNotResolved indicates that no resolution strategy matched the
	// supplied textual reference.
	ErrRefNotResolved = errors.New("cannot resolve ref")

	// ErrInvalidRepoPath indicates a repository-path reference that does not
	// split into exactly owner and project.
	ErrInvalidRepoPath = errors.New("invalid repo path")

	// ErrWorkspaceDirConflict indicates that a project record already points
	// at a different workspace directory than the one derived from the ref.
	ErrWorkspaceDirConflict = errors.New("workspace dir conflict")

	// ErrWorkspaceDirNotSet indicates a project record without a recorded
	// workspace directory where one is required.
	ErrWorkspaceDirNotSet = errors.New("workspace dir not set")

	// ErrSlotClaimed indicates a workspace slot claim was refused because the
	// slot is held by another workflow.
	ErrSlotClaimed = errors.New("workspace slot already claimed")

	// ErrSlotUnknown indicates a workspace slot number outside the pool.
	ErrSlotUnknown = errors.New("unknown workspace slot")

	// ErrPoolExhausted indicates that every slot in the project's pool is
	// currently claimed.
	ErrPoolExhausted = errors.New("workspace pool exhausted")

	// ErrLockTimeout indicates a file lock could not be acquired within the
	// timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrGitOperation indicates that a git command (clone, checkout, fetch,
	// etc.) failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrToolInvocation indicates that an external tool (git or gh) failed or
	// is absent from the environment.
	ErrToolInvocation = errors.New("tool invocation failed")

	// ErrChangeNotFound indicates the named change record does not exist.
	ErrChangeNotFound = errors.New("change not found")

	// ErrProjectNotFound indicates the project record does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrRecordCorrupted indicates a project or change record file could not
	// be parsed.
	ErrRecordCorrupted = errors.New("record corrupted")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrCommandNotConfigured indicates that a mock command was not
	// configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")
)
