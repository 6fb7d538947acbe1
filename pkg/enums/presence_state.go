package enums

// PresenceState is the canonical liveness representation for an agent.
// Producers must emit exactly one of these values; truthiness inference from
// heterogeneous payload shapes is deliberately not supported.
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
	PresenceUnknown PresenceState = "unknown"
)

// String implements fmt.Stringer.
func (p PresenceState) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PresenceState.
func (p PresenceState) IsValid() bool {
	switch p {
	case PresenceOnline, PresenceOffline, PresenceUnknown:
		return true
	default:
		return false
	}
}

// ParsePresenceState converts raw input into a PresenceState, mapping
// anything unrecognized (including empty before-states) to unknown.
func ParsePresenceState(value string) PresenceState {
	switch PresenceState(value) {
	case PresenceOnline:
		return PresenceOnline
	case PresenceOffline:
		return PresenceOffline
	default:
		return PresenceUnknown
	}
}
