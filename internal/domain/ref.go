// Package domain provides shared domain types for the sase-github provider.
package domain

// ResolvedRef is the immutable result of resolving a textual reference.
//
// A reference is one of three forms, tried in order: a repository path
// ("owner/project"), a project shorthand, or the name of a change record.
type ResolvedRef struct {
	// ProjectName is the logical project identifier.
	ProjectName string

	// ProjectFile is the path to the project's persistent record (.gp file).
	ProjectFile string

	// PrimaryWorkspaceDir is the canonical working directory for the
	// project. Always ends in a path separator.
	PrimaryWorkspaceDir string

	// CheckoutTarget is the branch or ref to check out after allocation,
	// e.g. "origin/main" for a repo-path ref or "origin/<change>" for a
	// change-name ref.
	CheckoutTarget string
}

// WorkflowMetadata describes the GitHub workflow to the host's dispatcher.
type WorkflowMetadata struct {
	// WorkflowType is the provider tag ("gh").
	WorkflowType string

	// RefPattern is the regular expression the host uses to recognize
	// "#gh" directives in prompts.
	RefPattern string

	// DisplayName is the human-readable provider name.
	DisplayName string

	// PreAllocatedEnvPrefix is the prefix of the environment variables the
	// interactive front-end sets when it pre-allocates a workspace slot.
	PreAllocatedEnvPrefix string
}
