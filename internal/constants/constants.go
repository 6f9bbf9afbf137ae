// Package constants provides centralized constant values used throughout
// sase-github. This package is the single source of truth for all shared
// constants and MUST NOT import any other internal packages.
package constants

import "time"

// Directory and file names used for persistent state.
const (
	// SaseHome is the hidden directory name where sase stores all its data.
	// This directory is created in the user's home directory.
	SaseHome = ".sase"

	// ProjectsDir is the directory name under SaseHome where per-project
	// records live.
	ProjectsDir = "projects"

	// ChangesDir is the directory name under a project's record directory
	// where change records live.
	ChangesDir = "changes"

	// PoolDir is the directory name under SaseHome where workspace pool
	// state files live.
	PoolDir = "pool"

	// LogsDir is the directory name under SaseHome where log files are stored.
	LogsDir = "logs"

	// ProjectFileExt is the file extension of a project record.
	ProjectFileExt = ".gp"

	// ChangeFileExt is the file extension of a change record.
	ChangeFileExt = ".cs"
)

// Project record keys. Records are line-oriented "KEY: value" files.
const (
	// KeyWorkspaceDir records the canonical workspace directory of a project.
	KeyWorkspaceDir = "WORKSPACE_DIR"

	// KeyBareRepoDir records a bare git repository directory. Its presence
	// marks a project as belonging to the bare-git provider, not GitHub.
	KeyBareRepoDir = "BARE_REPO_DIR"
)

// WorkflowType is the provider tag for GitHub-hosted projects.
const WorkflowType = "gh"

// ChangeLabel is the display label for a GitHub change.
const ChangeLabel = "PR"

// Environment variable names for the pre-allocated workspace override.
// The interactive front-end sets these when it has already claimed a slot.
const (
	// EnvPrefix is the common prefix of the pre-allocation variables,
	// advertised to the host through the workflow metadata.
	EnvPrefix = "SASE_GH"

	// EnvPreAllocated is "1" when a workspace slot was pre-allocated.
	EnvPreAllocated = "SASE_GH_PRE_ALLOCATED"

	// EnvWorkspaceNum holds the pre-allocated slot number.
	EnvWorkspaceNum = "SASE_GH_WORKSPACE_NUM"

	// EnvWorkspaceDir holds the pre-allocated workspace directory.
	EnvWorkspaceDir = "SASE_GH_WORKSPACE_DIR"
)

// Timeout configuration.
const (
	// DefaultProbeTimeout bounds the git remote probe used during
	// workflow-type classification. Expiry is a soft failure, never retried.
	DefaultProbeTimeout = 2 * time.Second

	// LockTimeout is the maximum duration to wait for the pool registry's
	// file lock.
	LockTimeout = 5 * time.Second
)

// DefaultPoolSize is the number of numbered workspace slots per project.
const DefaultPoolSize = 8

// Log file configuration.
const (
	// CLILogFileName is the global CLI log file under <sase home>/logs.
	CLILogFileName = "sase-github.log"

	// LogMaxSizeMB is the size at which the log file rotates.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is the age after which rotated log files are deleted.
	LogMaxAgeDays = 28

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)
