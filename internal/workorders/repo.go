package workorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/pagination"
)

// priorityRankExpr sorts work orders by urgency. The weights must stay in
// step with enums.WorkOrderPriority.Rank.
const priorityRankExpr = "(CASE priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END)"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a work orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.WorkOrder) (*models.WorkOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.WorkOrder, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.WorkOrder{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.Zone != "" {
		query = query.Where("zone = ?", filters.Zone)
	}
	if filters.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filters.AssigneeID)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, nil, err
		}
		query = query.Where(
			priorityRankExpr+" > ? OR ("+priorityRankExpr+" = ? AND (created_at, id) < (?, ?))",
			cursor.Rank, cursor.Rank, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.WorkOrder
	if err := query.Order(priorityRankExpr + " ASC, created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		orders = orders[:normalized]
		last := orders[normalized-1]
		return orders, &pagination.Cursor{Rank: last.Priority.Rank(), CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

// UpdateGuarded applies updates only while the row still holds the expected
// status. Callers inspect the affected row count to detect lost races.
func (r *repository) UpdateGuarded(ctx context.Context, orderID uuid.UUID, current enums.WorkOrderStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("id = ? AND status = ?", orderID, current).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClaimPending performs the single conditional write that wins or loses an
// assignment race. It never touches a row that already carries an assignee.
func (r *repository) ClaimPending(ctx context.Context, orderID, technicianID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("id = ? AND status = ? AND assignee_id IS NULL", orderID, enums.WorkOrderStatusPending).
		Updates(map[string]any{
			"status":      enums.WorkOrderStatusAssigned,
			"assignee_id": technicianID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseAssignment reverts an assigned order back to pending, guarded on the
// same technician still holding it.
func (r *repository) ReleaseAssignment(ctx context.Context, orderID, technicianID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("id = ? AND status = ? AND assignee_id = ?", orderID, enums.WorkOrderStatusAssigned, technicianID).
		Updates(map[string]any{
			"status":      enums.WorkOrderStatusPending,
			"assignee_id": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) AppendNote(ctx context.Context, note *models.WorkOrderNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) ListNotes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error) {
	var notes []models.WorkOrderNote
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repository) FindPendingCriticalBefore(ctx context.Context, cutoff time.Time) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND priority = ? AND created_at < ?",
			enums.WorkOrderStatusPending, enums.WorkOrderPriorityCritical, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.WorkOrderStatus]int64, error) {
	type statusCount struct {
		Status enums.WorkOrderStatus
		Total  int64
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.WorkOrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
