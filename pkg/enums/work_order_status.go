package enums

import "fmt"

// WorkOrderStatus tracks the lifecycle of a field work order.
type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusAssigned   WorkOrderStatus = "assigned"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusPending,
	WorkOrderStatusAssigned,
	WorkOrderStatusInProgress,
	WorkOrderStatusCompleted,
	WorkOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (w WorkOrderStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (w WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (w WorkOrderStatus) IsTerminal() bool {
	return w == WorkOrderStatusCompleted || w == WorkOrderStatusCancelled
}

// RequiresAssignee reports whether a work order in this status must carry an assignee.
func (w WorkOrderStatus) RequiresAssignee() bool {
	switch w {
	case WorkOrderStatusAssigned, WorkOrderStatusInProgress, WorkOrderStatusCompleted:
		return true
	}
	return false
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus. Unknown
// spellings (including dashed variants) are rejected rather than normalized.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}
