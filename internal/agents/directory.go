package agents

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
)

// Profile is the read-only directory view of an agent the dispatch services
// consume. The directory collaborator owns the underlying records.
type Profile struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Role   enums.AgentRole   `json:"role"`
	Status enums.AgentStatus `json:"status"`
	Phone  *string           `json:"phone,omitempty"`
	Email  *string           `json:"email,omitempty"`
}

// Eligible reports whether the profile may receive order assignments.
func (p *Profile) Eligible() bool {
	if p == nil {
		return false
	}
	return p.Role.Assignable() && p.Status.Eligible()
}

// Directory looks up agent metadata by id.
type Directory interface {
	Get(ctx context.Context, agentID string) (*Profile, error)
}

// ErrNotFound is returned when an agent id has no directory record.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")

type directory struct {
	repo *Repository
}

// NewDirectory builds a directory backed by the agents repository.
func NewDirectory(repo *Repository) (Directory, error) {
	if repo == nil {
		return nil, errors.New("agents repository required")
	}
	return &directory{repo: repo}, nil
}

func (d *directory) Get(ctx context.Context, agentID string) (*Profile, error) {
	agent, err := d.repo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	return &Profile{
		ID:     agent.ID,
		Name:   agent.Name,
		Role:   agent.Role,
		Status: agent.Status,
		Phone:  agent.Phone,
		Email:  agent.Email,
	}, nil
}
