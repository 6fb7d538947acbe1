package types

import "time"

// NotificationOutcome records the result of the fire-and-forget messages
// dispatched after an assignment commits. A nil message id with a non-empty
// error means that leg failed; the assignment itself is never affected.
type NotificationOutcome struct {
	CustomerMessageID *string   `json:"customer_message_id,omitempty"`
	CustomerError     *string   `json:"customer_error,omitempty"`
	AgentMessageID    *string   `json:"agent_message_id,omitempty"`
	AgentError        *string   `json:"agent_error,omitempty"`
	DispatchedAt      time.Time `json:"dispatched_at"`
}

// Failed reports whether any leg of the dispatch failed.
func (n NotificationOutcome) Failed() bool {
	return n.CustomerError != nil || n.AgentError != nil
}
