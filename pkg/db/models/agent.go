package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
)

// Agent mirrors the directory record for a sales agent. The dispatch
// services read this table; it is owned and mutated by the directory
// collaborator.
type Agent struct {
	ID        string            `gorm:"column:id;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	Role      enums.AgentRole   `gorm:"column:role;not null"`
	Status    enums.AgentStatus `gorm:"column:status;not null;default:'active'"`
	Phone     *string           `gorm:"column:phone"`
	Email     *string           `gorm:"column:email"`
	Channels  pq.StringArray    `gorm:"column:channels;type:text[]"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the gorm default.
func (Agent) TableName() string {
	return "agents"
}
