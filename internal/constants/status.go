package constants

// ChangeStatus represents the lifecycle state of a change record.
type ChangeStatus string

// Change record statuses.
const (
	// ChangeStatusDraft is a change that has not started running.
	ChangeStatusDraft ChangeStatus = "Draft"

	// ChangeStatusRunning is a change with an automation hook in flight.
	ChangeStatusRunning ChangeStatus = "Running"

	// ChangeStatusMailed is a change whose branch was pushed with a PR open.
	ChangeStatusMailed ChangeStatus = "Mailed"

	// ChangeStatusSubmitted is a change whose PR was merged.
	ChangeStatusSubmitted ChangeStatus = "Submitted"

	// ChangeStatusReverted is a change that was rolled back after submission.
	ChangeStatusReverted ChangeStatus = "Reverted"

	// ChangeStatusArchived is a change that was shelved without submission.
	ChangeStatusArchived ChangeStatus = "Archived"

	// ChangeStatusKilled is a change whose running hook was terminated.
	ChangeStatusKilled ChangeStatus = "Killed"
)

// TerminalStatuses are the states in which a child change no longer blocks
// submission of its parent.
func TerminalStatuses() []ChangeStatus {
	return []ChangeStatus{ChangeStatusSubmitted, ChangeStatusReverted, ChangeStatusArchived}
}

// IsTerminal reports whether s is one of the terminal change statuses.
func (s ChangeStatus) IsTerminal() bool {
	switch s {
	case ChangeStatusSubmitted, ChangeStatusReverted, ChangeStatusArchived:
		return true
	case ChangeStatusDraft, ChangeStatusRunning, ChangeStatusMailed, ChangeStatusKilled:
		return false
	}
	return false
}
