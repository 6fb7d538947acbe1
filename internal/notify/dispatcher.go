package notify

import (
	"context"
	"fmt"
)

// Destinations a dispatch message can be routed to.
const (
	DestinationCustomer = "customer"
	DestinationAgent    = "agent"
)

// Message is one outbound notification. Recipient is the channel address
// (phone or email) the downstream sender should use; it may be empty when
// the customer record has no contact info, in which case the sender decides.
type Message struct {
	OrderID     string `json:"order_id" validate:"required"`
	Destination string `json:"destination" validate:"required,oneof=customer agent"`
	Recipient   string `json:"recipient,omitempty"`
	Body        string `json:"body" validate:"required"`
}

// Dispatcher hands a message to the delivery pipeline and returns the
// delivery id assigned by the transport. Delivery is best effort; callers
// record the outcome rather than retrying.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// CustomerAssignedBody is the confirmation text sent once an agent takes
// the order.
func CustomerAssignedBody(agentName string) string {
	return fmt.Sprintf("Your order was received and %s will handle it shortly.", agentName)
}

// CustomerPendingBody is the fallback text when no agent could be assigned.
// It deliberately names no agent.
func CustomerPendingBody() string {
	return "Your order was received and will be assigned to an agent shortly."
}

// AgentAssignedBody tells the agent a new order landed on them.
func AgentAssignedBody(orderID, customerName string) string {
	return fmt.Sprintf("New order %s from %s has been assigned to you.", orderID, customerName)
}
