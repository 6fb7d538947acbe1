package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is one purchased line inside an order document. Line items
// are carried for notification copy only; the engine never mutates them.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        string    `gorm:"column:order_id;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the gorm default.
func (OrderLineItem) TableName() string {
	return "order_line_items"
}
