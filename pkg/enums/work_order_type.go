package enums

import "fmt"

// WorkOrderType classifies the kind of field work being ordered.
type WorkOrderType string

const (
	WorkOrderTypeLeakRepair        WorkOrderType = "leak_repair"
	WorkOrderTypePipeReplacement   WorkOrderType = "pipe_replacement"
	WorkOrderTypeValveMaintenance  WorkOrderType = "valve_maintenance"
	WorkOrderTypeMeterInstallation WorkOrderType = "meter_installation"
	WorkOrderTypeInspection        WorkOrderType = "inspection"
	WorkOrderTypeEmergency         WorkOrderType = "emergency"
)

var validWorkOrderTypes = []WorkOrderType{
	WorkOrderTypeLeakRepair,
	WorkOrderTypePipeReplacement,
	WorkOrderTypeValveMaintenance,
	WorkOrderTypeMeterInstallation,
	WorkOrderTypeInspection,
	WorkOrderTypeEmergency,
}

// String implements fmt.Stringer.
func (w WorkOrderType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderType.
func (w WorkOrderType) IsValid() bool {
	for _, candidate := range validWorkOrderTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkOrderType converts raw input into a WorkOrderType.
func ParseWorkOrderType(value string) (WorkOrderType, error) {
	for _, candidate := range validWorkOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order type %q", value)
}
