package enums

import "fmt"

// AgentStatus tracks whether an agent account may receive work.
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusSuspended AgentStatus = "suspended"
	AgentStatusInactive  AgentStatus = "inactive"
)

var validAgentStatuses = []AgentStatus{
	AgentStatusActive,
	AgentStatusSuspended,
	AgentStatusInactive,
}

// String implements fmt.Stringer.
func (a AgentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AgentStatus.
func (a AgentStatus) IsValid() bool {
	for _, candidate := range validAgentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// Eligible reports whether the status allows order assignment.
func (a AgentStatus) Eligible() bool {
	return a == AgentStatusActive
}

// ParseAgentStatus converts raw input into an AgentStatus.
func ParseAgentStatus(value string) (AgentStatus, error) {
	for _, candidate := range validAgentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent status %q", value)
}
