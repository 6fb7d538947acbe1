package models

import (
	"time"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

// Order is the durable replica of an order document. Order ids are opaque
// strings minted by the intake collaborator, not UUIDs.
type Order struct {
	ID                  string                     `gorm:"column:id;primaryKey"`
	Status              enums.OrderStatus          `gorm:"column:status;not null;default:'pending'"`
	RawStatus           *string                    `gorm:"column:raw_status"`
	AssignedAgentID     *string                    `gorm:"column:assigned_agent_id"`
	AssignedAt          *time.Time                 `gorm:"column:assigned_at"`
	AssignmentSource    *string                    `gorm:"column:assignment_source"`
	CustomerName        string                     `gorm:"column:customer_name;not null"`
	CustomerPhone       *string                    `gorm:"column:customer_phone"`
	CustomerEmail       *string                    `gorm:"column:customer_email"`
	NotificationOutcome *types.NotificationOutcome `gorm:"column:notification_outcome;type:jsonb;serializer:json"`
	ErrorNote           *string                    `gorm:"column:error_note"`
	ErrorAt             *time.Time                 `gorm:"column:error_at"`
	Items               []OrderLineItem            `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the gorm default.
func (Order) TableName() string {
	return "orders"
}
