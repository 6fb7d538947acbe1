package enums

import "fmt"

// AgentRole represents a directory-level role attached to an agent record.
type AgentRole string

const (
	AgentRoleVendor  AgentRole = "agent_vendor"
	AgentRoleAdmin   AgentRole = "admin"
	AgentRoleSupport AgentRole = "support"
)

var validAgentRoles = []AgentRole{
	AgentRoleVendor,
	AgentRoleAdmin,
	AgentRoleSupport,
}

// String implements fmt.Stringer.
func (a AgentRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AgentRole.
func (a AgentRole) IsValid() bool {
	for _, candidate := range validAgentRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// Assignable reports whether the role can receive order assignments.
func (a AgentRole) Assignable() bool {
	return a == AgentRoleVendor
}

// ParseAgentRole converts raw input into an AgentRole.
func ParseAgentRole(value string) (AgentRole, error) {
	for _, candidate := range validAgentRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent role %q", value)
}
