package technicians

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
)

// Repository defines persistence operations for the technician registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tech *models.Technician) (*models.Technician, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Technician, error)
	List(ctx context.Context) ([]models.Technician, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	HasActiveAssignment(ctx context.Context, technicianID uuid.UUID) (bool, error)
	ActiveAssignmentCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a technician repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tech *models.Technician) (*models.Technician, error) {
	if err := r.db.WithContext(ctx).Create(tech).Error; err != nil {
		return nil, err
	}
	return tech, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	var tech models.Technician
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tech).Error
	if err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *repository) List(ctx context.Context) ([]models.Technician, error) {
	var techs []models.Technician
	err := r.db.WithContext(ctx).Order("name ASC").Find(&techs).Error
	if err != nil {
		return nil, err
	}
	return techs, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// HasActiveAssignment reports whether the technician currently holds a work
// order in an active status. Availability is derived from this at read time,
// never stored on the technician row.
func (r *repository) HasActiveAssignment(ctx context.Context, technicianID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("assignee_id = ? AND status IN ?", technicianID,
			[]enums.WorkOrderStatus{enums.WorkOrderStatusAssigned, enums.WorkOrderStatusInProgress}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActiveAssignmentCounts returns per-technician active order counts in one
// query so list projections avoid an existence check per row.
func (r *repository) ActiveAssignmentCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	type assignmentCount struct {
		AssigneeID uuid.UUID
		Total      int64
	}

	var rows []assignmentCount
	err := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Select("assignee_id, COUNT(*) AS total").
		Where("assignee_id IS NOT NULL AND status IN ?",
			[]enums.WorkOrderStatus{enums.WorkOrderStatusAssigned, enums.WorkOrderStatusInProgress}).
		Group("assignee_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.AssigneeID] = row.Total
	}
	return counts, nil
}
