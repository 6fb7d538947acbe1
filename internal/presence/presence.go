package presence

import (
	"context"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
)

// Source exposes the liveness snapshot the assignment engine consumes.
// Transport-level heartbeat measurement lives with the presence collaborator;
// this interface only reads the resulting signal.
type Source interface {
	// Snapshot returns the ids of every agent currently reported online.
	// Ordering is not guaranteed; callers that need determinism must sort.
	Snapshot(ctx context.Context) ([]string, error)
	// StateOf returns the canonical liveness state for one agent.
	StateOf(ctx context.Context, agentID string) (enums.PresenceState, error)
}

// Transition is the payload shape of a presence-change event.
type Transition struct {
	AgentID string              `json:"agent_id"`
	Before  enums.PresenceState `json:"before"`
	After   enums.PresenceState `json:"after"`
}

// Reconnected reports whether the transition is a strict offline-to-online
// flip. Heartbeat rewrites (online to online) and unknown before-states do
// not count, so they never fan out into reconciliation sweeps.
func (t Transition) Reconnected() bool {
	return t.Before == enums.PresenceOffline && t.After == enums.PresenceOnline
}
