package enums

import "fmt"

// WorkOrderPriority ranks how urgently a work order needs attention.
type WorkOrderPriority string

const (
	WorkOrderPriorityCritical WorkOrderPriority = "critical"
	WorkOrderPriorityHigh     WorkOrderPriority = "high"
	WorkOrderPriorityMedium   WorkOrderPriority = "medium"
	WorkOrderPriorityLow      WorkOrderPriority = "low"
)

var validWorkOrderPriorities = []WorkOrderPriority{
	WorkOrderPriorityCritical,
	WorkOrderPriorityHigh,
	WorkOrderPriorityMedium,
	WorkOrderPriorityLow,
}

// String implements fmt.Stringer.
func (w WorkOrderPriority) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderPriority.
func (w WorkOrderPriority) IsValid() bool {
	for _, candidate := range validWorkOrderPriorities {
		if candidate == w {
			return true
		}
	}
	return false
}

// Rank returns the sort weight for the priority, highest urgency first.
// Unknown values sort last.
func (w WorkOrderPriority) Rank() int {
	switch w {
	case WorkOrderPriorityCritical:
		return 0
	case WorkOrderPriorityHigh:
		return 1
	case WorkOrderPriorityMedium:
		return 2
	case WorkOrderPriorityLow:
		return 3
	}
	return 4
}

// ParseWorkOrderPriority converts raw input into a WorkOrderPriority.
func ParseWorkOrderPriority(value string) (WorkOrderPriority, error) {
	for _, candidate := range validWorkOrderPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order priority %q", value)
}
