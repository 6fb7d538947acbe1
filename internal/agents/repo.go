package agents

import (
	"context"

	"gorm.io/gorm"

	"github.com/ventaflow/dispatch-backend/pkg/db/models"
)

// Repository exposes read-only persistence operations on the agents table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an agents repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an agent record by its directory id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}
