package domain

// RunnerContext is the mutable, run-scoped record owned exclusively by one
// in-flight automated run. It is created by the allocator, mutated once by
// the pre-run step (HeadBefore), read-only afterward, and discarded after
// the post-run step returns. Never persisted.
type RunnerContext struct {
	// ProjectName is the logical project identifier.
	ProjectName string

	// ProjectFile is the path to the project record.
	ProjectFile string

	// PrimaryWorkspaceDir is the canonical workspace directory.
	PrimaryWorkspaceDir string

	// CheckoutTarget is the branch or ref checked out for this run.
	CheckoutTarget string

	// WorkspaceDir is the specific numbered slot directory in use.
	WorkspaceDir string

	// WorkspaceNum is the slot identifier, unique among concurrently
	// claimed slots for a project.
	WorkspaceNum int

	// ShouldRelease indicates whether the lifecycle controller must release
	// the slot on teardown. False means the claim stays pinned for
	// interactive follow-up work.
	ShouldRelease bool

	// HeadBefore is the commit id captured at run start. Empty means no
	// git history snapshot was taken.
	HeadBefore string
}

// Metadata keys emitted by the post-run step.
const (
	// MetaWorkspace carries the slot number of the run.
	MetaWorkspace = "meta_workspace"

	// MetaCommitMessage carries the subject of the newest commit when the
	// head moved during the run.
	MetaCommitMessage = "meta_commit_message"
)

// PostAgentResult is the output of a completed run.
type PostAgentResult struct {
	// DiffPath is the location of a captured diff file, or empty if none
	// was captured.
	DiffPath string

	// Meta holds string metadata for the workflow executor. Always contains
	// MetaWorkspace; contains MetaCommitMessage when the head moved during
	// the run and the newest commit subject is non-empty.
	Meta map[string]string
}
