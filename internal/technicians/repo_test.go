package technicians

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/types"
)

func setupTechniciansTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	technicians := `
CREATE TABLE IF NOT EXISTS technicians (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'technician',
  skills TEXT NOT NULL DEFAULT '[]',
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	workOrders := `
CREATE TABLE IF NOT EXISTS work_orders (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  priority TEXT NOT NULL DEFAULT 'medium',
  status TEXT NOT NULL DEFAULT 'pending',
  zone TEXT NOT NULL,
  assignee_id TEXT,
  scheduled_for DATETIME,
  started_at DATETIME,
  completed_at DATETIME,
  estimated_duration_min INTEGER,
  actual_duration_min INTEGER,
  materials TEXT NOT NULL DEFAULT '[]',
  source_leak_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(technicians).Error)
	require.NoError(t, db.Exec(workOrders).Error)
	return db
}

func createTestTechnician(t *testing.T, db *gorm.DB, name string, active bool, skills types.SkillTags) *models.Technician {
	t.Helper()

	tech := &models.Technician{
		ID:     uuid.New(),
		Name:   name,
		Email:  name + "@aquaops.test",
		Role:   "technician",
		Skills: skills,
		Active: active,
	}
	require.NoError(t, db.Create(tech).Error)
	return tech
}

func assignOrder(t *testing.T, db *gorm.DB, techID uuid.UUID, status enums.WorkOrderStatus) {
	t.Helper()

	order := &models.WorkOrder{
		ID:         uuid.New(),
		Title:      "Assigned order",
		Type:       enums.WorkOrderTypeLeakRepair,
		Priority:   enums.WorkOrderPriorityMedium,
		Status:     status,
		Zone:       "zone-1",
		AssigneeID: &techID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, db.Create(order).Error)
}

func TestRepositoryHasActiveAssignment(t *testing.T) {
	db := setupTechniciansTestDB(t)
	repo := NewRepository(db)

	busy := createTestTechnician(t, db, "busy-tech", true, nil)
	idle := createTestTechnician(t, db, "idle-tech", true, nil)
	finished := createTestTechnician(t, db, "finished-tech", true, nil)

	assignOrder(t, db, busy.ID, enums.WorkOrderStatusInProgress)
	assignOrder(t, db, finished.ID, enums.WorkOrderStatusCompleted)

	active, err := repo.HasActiveAssignment(context.Background(), busy.ID)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = repo.HasActiveAssignment(context.Background(), idle.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// Completed orders no longer hold the technician.
	active, err = repo.HasActiveAssignment(context.Background(), finished.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRepositoryCreateWithoutSkills(t *testing.T) {
	db := setupTechniciansTestDB(t)
	repo := NewRepository(db)

	tech, err := repo.Create(context.Background(), &models.Technician{
		ID:     uuid.New(),
		Name:   "bare-tech",
		Email:  "bare@aquaops.test",
		Role:   "technician",
		Active: true,
	})
	require.NoError(t, err, "nil skills must satisfy the not null column")

	var raw string
	require.NoError(t, db.Raw("SELECT skills FROM technicians WHERE id = ?", tech.ID).Scan(&raw).Error)
	assert.Equal(t, "[]", raw)
}

func TestRepositoryActiveAssignmentCounts(t *testing.T) {
	db := setupTechniciansTestDB(t)
	repo := NewRepository(db)

	techA := createTestTechnician(t, db, "tech-a", true, nil)
	techB := createTestTechnician(t, db, "tech-b", true, nil)

	assignOrder(t, db, techA.ID, enums.WorkOrderStatusAssigned)
	assignOrder(t, db, techB.ID, enums.WorkOrderStatusCancelled)

	counts, err := repo.ActiveAssignmentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[techA.ID])
	assert.Zero(t, counts[techB.ID])
}
