package enums

import "fmt"

// AllocationStatus tracks a stock allocation against a project visit.
type AllocationStatus string

const (
	AllocationStatusReserved AllocationStatus = "reserved"
	AllocationStatusLoaded   AllocationStatus = "loaded"
	AllocationStatusConsumed AllocationStatus = "consumed"
	AllocationStatusReleased AllocationStatus = "released"
)

var validAllocationStatuses = []AllocationStatus{
	AllocationStatusReserved,
	AllocationStatusLoaded,
	AllocationStatusConsumed,
	AllocationStatusReleased,
}

// IsValid reports whether the value is a known AllocationStatus.
func (s AllocationStatus) IsValid() bool {
	for _, candidate := range validAllocationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the allocation can no longer change status.
func (s AllocationStatus) IsTerminal() bool {
	return s == AllocationStatusConsumed || s == AllocationStatusReleased
}

// ParseAllocationStatus converts raw input into an AllocationStatus.
func ParseAllocationStatus(value string) (AllocationStatus, error) {
	for _, candidate := range validAllocationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation status %q", value)
}
