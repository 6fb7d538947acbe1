package orderstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/ventaflow/dispatch-backend/pkg/logger"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

// Dual fans writes out to both replicas independently. There is no
// cross-replica transaction; a replica failure is logged and the sibling
// write still happens. The reconciliation sweep repairs divergence.
type Dual struct {
	replicas []Replica
	logg     *logger.Logger
}

// NewDual builds the dual store. Replica order matters for reads: the first
// replica is tried first (put the low-latency one first).
func NewDual(logg *logger.Logger, replicas ...Replica) (*Dual, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if len(replicas) == 0 {
		return nil, errors.New("at least one replica required")
	}
	for _, replica := range replicas {
		if replica == nil {
			return nil, errors.New("nil replica provided")
		}
	}
	return &Dual{replicas: replicas, logg: logg}, nil
}

// AssignedAgent reads the assignee from every replica and returns the first
// non-empty answer. It errors only when no replica could answer at all, so a
// single degraded replica never blocks the idempotency check.
func (d *Dual) AssignedAgent(ctx context.Context, orderID string) (string, error) {
	var (
		errs     []error
		answered bool
	)
	for _, replica := range d.replicas {
		agentID, err := replica.AssignedAgent(ctx, orderID)
		if err != nil {
			d.warnReplica(ctx, replica, orderID, "read assignment", err)
			errs = append(errs, fmt.Errorf("%s: %w", replica.Name(), err))
			continue
		}
		answered = true
		if agentID != "" {
			return agentID, nil
		}
	}
	if !answered {
		return "", multierr.Combine(errs...)
	}
	return "", nil
}

// GetDocument returns the first replica's copy that resolves.
func (d *Dual) GetDocument(ctx context.Context, orderID string) (*Document, error) {
	var errs []error
	for _, replica := range d.replicas {
		doc, err := replica.GetDocument(ctx, orderID)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			d.warnReplica(ctx, replica, orderID, "read document", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", replica.Name(), err))
	}
	return nil, multierr.Combine(errs...)
}

// UpsertDocument writes the document to every replica, best effort.
func (d *Dual) UpsertDocument(ctx context.Context, doc *Document) error {
	return d.fanOut(ctx, doc.ID, "upsert document", func(replica Replica) error {
		return replica.UpsertDocument(ctx, doc)
	})
}

// WriteAssignment applies the assignment to every replica. An
// ErrAlreadyAssigned from one replica is surfaced but does not stop the
// sibling write; divergence is repaired by the sweep.
func (d *Dual) WriteAssignment(ctx context.Context, orderID string, assignment Assignment) error {
	return d.fanOut(ctx, orderID, "write assignment", func(replica Replica) error {
		return replica.WriteAssignment(ctx, orderID, assignment)
	})
}

// MarkPending normalizes the order to pending on every replica.
func (d *Dual) MarkPending(ctx context.Context, orderID string) error {
	return d.fanOut(ctx, orderID, "mark pending", func(replica Replica) error {
		return replica.MarkPending(ctx, orderID)
	})
}

// WriteNotificationOutcome records the dispatch result on every replica.
func (d *Dual) WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error {
	return d.fanOut(ctx, orderID, "write notification outcome", func(replica Replica) error {
		return replica.WriteNotificationOutcome(ctx, orderID, outcome)
	})
}

// AnnotateError records a per-order failure on every replica.
func (d *Dual) AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error {
	return d.fanOut(ctx, orderID, "annotate error", func(replica Replica) error {
		return replica.AnnotateError(ctx, orderID, note, at)
	})
}

func (d *Dual) fanOut(ctx context.Context, orderID, op string, fn func(Replica) error) error {
	var errs []error
	for _, replica := range d.replicas {
		if err := fn(replica); err != nil {
			d.warnReplica(ctx, replica, orderID, op, err)
			errs = append(errs, fmt.Errorf("%s: %w", replica.Name(), err))
		}
	}
	if len(errs) == len(d.replicas) {
		return multierr.Combine(errs...)
	}
	return nil
}

func (d *Dual) warnReplica(ctx context.Context, replica Replica, orderID, op string, err error) {
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"replica":  replica.Name(),
		"order_id": orderID,
		"op":       op,
	})
	d.logg.Error(logCtx, "replica operation failed", err)
}
