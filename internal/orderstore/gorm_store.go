package orderstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ventaflow/dispatch-backend/pkg/db/models"
	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

// GormStore is the durable Postgres replica. It is the authoritative copy for
// sweep candidate discovery and audits.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore binds the durable replica to the provided GORM DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Name identifies the replica in logs.
func (s *GormStore) Name() string {
	return "postgres"
}

// GetDocument loads the order and its line items.
func (s *GormStore) GetDocument(ctx context.Context, orderID string) (*Document, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return documentFromModel(&order), nil
}

// UpsertDocument writes the order record idempotently. Assignment fields are
// never cleared by an upsert; intake events may repeat.
func (s *GormStore) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order document with id required")
	}

	order := modelFromDocument(doc)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		lookupErr := tx.First(&existing, "id = ?", doc.ID).Error
		if lookupErr == nil {
			updates := map[string]any{
				"customer_name":  order.CustomerName,
				"customer_phone": order.CustomerPhone,
				"customer_email": order.CustomerEmail,
				"raw_status":     order.RawStatus,
			}
			if existing.AssignedAgentID == nil {
				updates["status"] = order.Status
			}
			return tx.Model(&models.Order{}).Where("id = ?", doc.ID).Updates(updates).Error
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return lookupErr
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert order")
	}
	return nil
}

// AssignedAgent returns the current assignee id, or empty when unassigned.
// A missing record reads as unassigned so racing triggers fall through to
// the conditional write guard.
func (s *GormStore) AssignedAgent(ctx context.Context, orderID string) (string, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Select("assigned_agent_id").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read assignment")
	}
	if order.AssignedAgentID == nil {
		return "", nil
	}
	return *order.AssignedAgentID, nil
}

// WriteAssignment sets the assignment fields only while assigned_agent_id is
// still null, which closes the check-then-write window on this replica.
func (s *GormStore) WriteAssignment(ctx context.Context, orderID string, assignment Assignment) error {
	source := assignment.Source.String()
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND assigned_agent_id IS NULL", orderID).
		Updates(map[string]any{
			"assigned_agent_id": assignment.AgentID,
			"assigned_at":       assignment.AssignedAt,
			"assignment_source": source,
			"status":            enums.OrderStatusAssigned,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "write assignment")
	}
	if res.RowsAffected == 0 {
		current, err := s.AssignedAgent(ctx, orderID)
		if err != nil {
			return err
		}
		if current != "" && current != assignment.AgentID {
			return ErrAlreadyAssigned
		}
		if current == assignment.AgentID && current != "" {
			return nil
		}
		return ErrNotFound
	}
	return nil
}

// MarkPending normalizes the order back to the canonical pending status.
func (s *GormStore) MarkPending(ctx context.Context, orderID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND assigned_agent_id IS NULL", orderID).
		Update("status", enums.OrderStatusPending)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark pending")
	}
	return nil
}

// WriteNotificationOutcome stores the post-assignment dispatch result.
func (s *GormStore) WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error {
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("notification_outcome", &outcome).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write notification outcome")
	}
	return nil
}

// AnnotateError records a per-order failure without touching assignment state.
func (s *GormStore) AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":     enums.OrderStatusError,
			"error_note": note,
			"error_at":   at,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "annotate order error")
	}
	return nil
}

// FindPendingOrders lists ids whose stored status matches any known pending
// variant, oldest first.
func (s *GormStore) FindPendingOrders(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status IN ? OR raw_status IN ?", enums.PendingStatusVariants(), enums.PendingStatusVariants()).
		Where("assigned_agent_id IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find pending orders")
	}
	return ids, nil
}

// FindUnassigned scans for records lacking an assignee regardless of status
// vocabulary, oldest first.
func (s *GormStore) FindUnassigned(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("assigned_agent_id IS NULL").
		Where("status <> ?", enums.OrderStatusError).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find unassigned orders")
	}
	return ids, nil
}

func documentFromModel(order *models.Order) *Document {
	doc := &Document{
		ID:                  order.ID,
		Status:              order.Status,
		RawStatus:           order.RawStatus,
		AssignedAgentID:     order.AssignedAgentID,
		AssignedAt:          order.AssignedAt,
		AssignmentSource:    order.AssignmentSource,
		CustomerName:        order.CustomerName,
		CustomerPhone:       order.CustomerPhone,
		CustomerEmail:       order.CustomerEmail,
		NotificationOutcome: order.NotificationOutcome,
		ErrorNote:           order.ErrorNote,
		ErrorAt:             order.ErrorAt,
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, LineItem{
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return doc
}

func modelFromDocument(doc *Document) *models.Order {
	order := &models.Order{
		ID:                  doc.ID,
		Status:              doc.Status,
		RawStatus:           doc.RawStatus,
		AssignedAgentID:     doc.AssignedAgentID,
		AssignedAt:          doc.AssignedAt,
		AssignmentSource:    doc.AssignmentSource,
		CustomerName:        doc.CustomerName,
		CustomerPhone:       doc.CustomerPhone,
		CustomerEmail:       doc.CustomerEmail,
		NotificationOutcome: doc.NotificationOutcome,
		ErrorNote:           doc.ErrorNote,
		ErrorAt:             doc.ErrorAt,
	}
	for _, item := range doc.Items {
		order.Items = append(order.Items, models.OrderLineItem{
			OrderID:        doc.ID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return order
}
