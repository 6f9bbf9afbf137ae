package domain

import "github.com/bbugyi200/sase-github/internal/constants"

// ChangeSpec is a persisted description of one logical unit of work
// (a branch plus metadata), independent of any specific workspace slot.
//
// Example record file (~/.sase/projects/myproj/changes/my-feature.cs):
//
//	NAME: my-feature
//	STATUS: Running
//	PARENT: base-feature
//	WORKFLOW: gh
//	DESCRIPTION: Add the widget endpoint
type ChangeSpec struct {
	// Name is the unique change name, also the branch name.
	Name string

	// FilePath is the path to the change record file itself.
	FilePath string

	// ProjectFile is the path to the owning project's record.
	ProjectFile string

	// ProjectBasename is the owning project's name.
	ProjectBasename string

	// Description is the free-form change description.
	Description string

	// Parent names the change this one is stacked on, if any.
	Parent string

	// Status is the lifecycle state of the change.
	Status constants.ChangeStatus

	// Workflow is the provider tag the change belongs to.
	Workflow string
}
