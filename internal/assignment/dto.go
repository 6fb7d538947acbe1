package assignment

import "encoding/json"

// EventEnvelope is the wire shape shared by every domain event this service
// consumes. EventID drives consumer idempotency; Data is the typed payload.
type EventEnvelope struct {
	EventID string          `json:"event_id"`
	Data    json.RawMessage `json:"data"`
}

// OrderCreatedPayload is the intake event emitted when an upstream channel
// records a new order. Status carries whatever vocabulary the producer uses;
// the consumer normalizes it.
type OrderCreatedPayload struct {
	OrderID  string            `json:"order_id"`
	Status   string            `json:"status"`
	Customer CustomerPayload   `json:"customer"`
	Items    []LineItemPayload `json:"items,omitempty"`
}

// CustomerPayload is the buyer contact block inside an intake event.
type CustomerPayload struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// LineItemPayload is one purchased line inside an intake event.
type LineItemPayload struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

// PresenceChangedPayload is the presence-transition event emitted by the
// heartbeat collector when an agent's liveness flips.
type PresenceChangedPayload struct {
	AgentID string `json:"agent_id"`
	Before  string `json:"before"`
	After   string `json:"after"`
}
