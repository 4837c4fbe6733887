package enums

import "fmt"

// TechnicianAvailability is a read-time projection of a technician's current
// assignment load. It is never stored.
type TechnicianAvailability string

const (
	TechnicianAvailable TechnicianAvailability = "available"
	TechnicianBusy      TechnicianAvailability = "busy"
	TechnicianOffline   TechnicianAvailability = "offline"
)

var validTechnicianAvailabilities = []TechnicianAvailability{
	TechnicianAvailable,
	TechnicianBusy,
	TechnicianOffline,
}

// String implements fmt.Stringer.
func (t TechnicianAvailability) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TechnicianAvailability.
func (t TechnicianAvailability) IsValid() bool {
	for _, candidate := range validTechnicianAvailabilities {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTechnicianAvailability converts raw input into a TechnicianAvailability.
func ParseTechnicianAvailability(value string) (TechnicianAvailability, error) {
	for _, candidate := range validTechnicianAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid technician availability %q", value)
}
