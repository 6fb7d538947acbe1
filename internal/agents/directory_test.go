package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
)

func setupAgentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:agents_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS agents (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  phone TEXT,
  email TEXT,
  channels TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedAgent(t *testing.T, db *gorm.DB, id string, role enums.AgentRole, status enums.AgentStatus) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO agents (id, name, role, status, phone) VALUES (?, ?, ?, ?, ?)`,
		id, "Agent "+id, role.String(), status.String(), "+5215550000",
	).Error)
}

func TestDirectoryGetReturnsProfile(t *testing.T) {
	db := setupAgentsTestDB(t)
	seedAgent(t, db, "agent-a", enums.AgentRoleVendor, enums.AgentStatusActive)

	dir, err := NewDirectory(NewRepository(db))
	require.NoError(t, err)

	profile, err := dir.Get(context.Background(), "agent-a")
	require.NoError(t, err)
	assert.Equal(t, "agent-a", profile.ID)
	assert.Equal(t, "Agent agent-a", profile.Name)
	assert.True(t, profile.Eligible())
}

func TestDirectoryGetMissingAgent(t *testing.T) {
	db := setupAgentsTestDB(t)

	dir, err := NewDirectory(NewRepository(db))
	require.NoError(t, err)

	_, err = dir.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProfileEligibility(t *testing.T) {
	db := setupAgentsTestDB(t)
	seedAgent(t, db, "suspended", enums.AgentRoleVendor, enums.AgentStatusSuspended)
	seedAgent(t, db, "admin", enums.AgentRoleAdmin, enums.AgentStatusActive)

	dir, err := NewDirectory(NewRepository(db))
	require.NoError(t, err)

	suspended, err := dir.Get(context.Background(), "suspended")
	require.NoError(t, err)
	assert.False(t, suspended.Eligible())

	admin, err := dir.Get(context.Background(), "admin")
	require.NoError(t, err)
	assert.False(t, admin.Eligible())
}
