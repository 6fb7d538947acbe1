package orderstore

import (
	"context"
	"time"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

// Document is the replica-independent view of an order record. Both replicas
// serialize to and from this shape.
type Document struct {
	ID                  string                     `json:"id"`
	Status              enums.OrderStatus          `json:"status"`
	RawStatus           *string                    `json:"raw_status,omitempty"`
	AssignedAgentID     *string                    `json:"assigned_agent_id,omitempty"`
	AssignedAt          *time.Time                 `json:"assigned_at,omitempty"`
	AssignmentSource    *string                    `json:"assignment_source,omitempty"`
	CustomerName        string                     `json:"customer_name"`
	CustomerPhone       *string                    `json:"customer_phone,omitempty"`
	CustomerEmail       *string                    `json:"customer_email,omitempty"`
	Items               []LineItem                 `json:"items,omitempty"`
	NotificationOutcome *types.NotificationOutcome `json:"notification_outcome,omitempty"`
	ErrorNote           *string                    `json:"error_note,omitempty"`
	ErrorAt             *time.Time                 `json:"error_at,omitempty"`
}

// LineItem is one purchased line carried inside a document.
type LineItem struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

// Assignment carries the fields written when an order is handed to an agent.
type Assignment struct {
	AgentID    string
	AssignedAt time.Time
	Source     enums.AssignmentSource
}

// ErrNotFound is returned when a replica has no record for the order id.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

// ErrAlreadyAssigned is returned by a replica whose conditional write
// observed an existing non-null assignment.
var ErrAlreadyAssigned = pkgerrors.New(pkgerrors.CodeStateConflict, "order already assigned")

// Replica is one physical copy of the order record store. The engine writes
// each replica independently; a replica must never assume the sibling's
// write succeeded.
type Replica interface {
	Name() string
	GetDocument(ctx context.Context, orderID string) (*Document, error)
	UpsertDocument(ctx context.Context, doc *Document) error
	AssignedAgent(ctx context.Context, orderID string) (string, error)
	WriteAssignment(ctx context.Context, orderID string, assignment Assignment) error
	MarkPending(ctx context.Context, orderID string) error
	WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error
	AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error
}

// CandidateFinder discovers orders the reconciliation sweep should look at.
// Only the durable replica can answer these queries.
type CandidateFinder interface {
	FindPendingOrders(ctx context.Context, limit int) ([]string, error)
	FindUnassigned(ctx context.Context, limit int) ([]string, error)
}
