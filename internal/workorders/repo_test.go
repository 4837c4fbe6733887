package workorders

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
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
)

func setupWorkOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

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
	workOrderNotes := `
CREATE TABLE IF NOT EXISTS work_order_notes (
  id TEXT PRIMARY KEY,
  work_order_id TEXT NOT NULL,
  author_id TEXT NOT NULL,
  author_role TEXT NOT NULL DEFAULT 'operator',
  kind TEXT NOT NULL DEFAULT 'comment',
  body TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(workOrders).Error)
	require.NoError(t, db.Exec(workOrderNotes).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, status enums.WorkOrderStatus, priority enums.WorkOrderPriority, zone string, created time.Time) *models.WorkOrder {
	t.Helper()

	order := &models.WorkOrder{
		ID:        uuid.New(),
		Title:     "Repair main at " + zone,
		Type:      enums.WorkOrderTypeLeakRepair,
		Priority:  priority,
		Status:    status,
		Zone:      zone,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListWorkOrders_pagination(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	older := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityMedium, "zone-2", now.Add(-time.Hour))
	newer := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityHigh, "zone-1", now)

	orders, next, err := repo.List(context.Background(), pagination.Params{Limit: 1}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, next)
	assert.Equal(t, newer.ID, orders[0].ID)

	cursor := pagination.EncodeCursor(*next)
	second, nextAfter, err := repo.List(context.Background(), pagination.Params{Limit: 1, Cursor: cursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, older.ID, second[0].ID)
	assert.Nil(t, nextAfter)
}

func TestRepositoryListWorkOrders_filters(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityCritical, "zone-1", now.Add(-time.Minute))
	assigned := createTestOrder(t, db, enums.WorkOrderStatusAssigned, enums.WorkOrderPriorityLow, "zone-2", now)

	status := enums.WorkOrderStatusAssigned
	orders, _, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, assigned.ID, orders[0].ID)

	orders, _, err = repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Zone: "zone-1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "zone-1", orders[0].Zone)
}

func TestRepositoryClaimPending(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityHigh, "zone-3", now)
	techA := uuid.New()
	techB := uuid.New()

	affected, err := repo.ClaimPending(context.Background(), order.ID, techA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// The second claim must find no claimable row.
	affected, err = repo.ClaimPending(context.Background(), order.ID, techB)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusAssigned, reloaded.Status)
	require.NotNil(t, reloaded.AssigneeID)
	assert.Equal(t, techA, *reloaded.AssigneeID)
}

func TestRepositoryReleaseAssignment(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityMedium, "zone-4", now)
	tech := uuid.New()

	_, err := repo.ClaimPending(context.Background(), order.ID, tech)
	require.NoError(t, err)

	// Releasing on behalf of a different technician must not touch the row.
	affected, err := repo.ReleaseAssignment(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.ReleaseAssignment(context.Background(), order.ID, tech)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.AssigneeID)
}

func TestRepositoryUpdateGuarded(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityMedium, "zone-5", now)

	affected, err := repo.UpdateGuarded(context.Background(), order.ID, enums.WorkOrderStatusAssigned, map[string]any{
		"status": enums.WorkOrderStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected, "guard on a stale status must not update")

	affected, err = repo.UpdateGuarded(context.Background(), order.ID, enums.WorkOrderStatusPending, map[string]any{
		"status": enums.WorkOrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestRepositoryNotesRoundTrip(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityLow, "zone-6", now)

	note := &models.WorkOrderNote{
		ID:          uuid.New(),
		WorkOrderID: order.ID,
		AuthorID:    uuid.New(),
		AuthorRole:  enums.ActorRoleOperator,
		Kind:        enums.NoteKindComment,
		Body:        "awaiting parts from depot",
		CreatedAt:   now,
	}
	require.NoError(t, repo.AppendNote(context.Background(), note))

	notes, err := repo.ListNotes(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "awaiting parts from depot", notes[0].Body)
	assert.Equal(t, enums.NoteKindComment, notes[0].Kind)
}

func TestRepositoryFindPendingCriticalBefore(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	stale := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityCritical, "zone-7", now.Add(-time.Hour))
	createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityCritical, "zone-7", now)
	createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityLow, "zone-7", now.Add(-time.Hour))

	orders, err := repo.FindPendingCriticalBefore(context.Background(), now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
}

func TestRepositoryListOrdersByPriorityThenRecency(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	critical := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityCritical, "zone-9", now.Add(-time.Hour))
	highNewer := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityHigh, "zone-9", now)
	highOlder := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityHigh, "zone-9", now.Add(-2*time.Hour))
	low := createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityLow, "zone-9", now)

	orders, _, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, orders, 4)
	assert.Equal(t, critical.ID, orders[0].ID, "an old critical order outranks fresher lower priorities")
	assert.Equal(t, highNewer.ID, orders[1].ID)
	assert.Equal(t, highOlder.ID, orders[2].ID)
	assert.Equal(t, low.ID, orders[3].ID)

	// Paging across a priority boundary must not skip rows.
	firstPage, next, err := repo.List(context.Background(), pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.NotNil(t, next)

	secondPage, _, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: pagination.EncodeCursor(*next)}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	assert.Equal(t, highOlder.ID, secondPage[0].ID)
	assert.Equal(t, low.ID, secondPage[1].ID)
}

func TestRepositoryCreateWithoutMaterials(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	order := &models.WorkOrder{
		ID:       uuid.New(),
		Title:    "Pipe burst",
		Type:     enums.WorkOrderTypeEmergency,
		Priority: enums.WorkOrderPriorityCritical,
		Status:   enums.WorkOrderStatusPending,
		Zone:     "Chilenje",
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err, "nil materials must satisfy the not null column")

	var raw string
	require.NoError(t, db.Raw("SELECT materials FROM work_orders WHERE id = ?", order.ID).Scan(&raw).Error)
	assert.Equal(t, "[]", raw)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Materials)
}

func TestRepositoryCountByStatus(t *testing.T) {
	db := setupWorkOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityMedium, "zone-8", now)
	createTestOrder(t, db, enums.WorkOrderStatusPending, enums.WorkOrderPriorityMedium, "zone-8", now)
	createTestOrder(t, db, enums.WorkOrderStatusCompleted, enums.WorkOrderPriorityMedium, "zone-8", now)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[enums.WorkOrderStatusPending])
	assert.Equal(t, int64(1), counts[enums.WorkOrderStatusCompleted])
}
