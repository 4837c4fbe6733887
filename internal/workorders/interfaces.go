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

// Repository defines persistence operations for work order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.WorkOrder) (*models.WorkOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.WorkOrder, *pagination.Cursor, error)
	UpdateGuarded(ctx context.Context, orderID uuid.UUID, current enums.WorkOrderStatus, updates map[string]any) (int64, error)
	ClaimPending(ctx context.Context, orderID, technicianID uuid.UUID) (int64, error)
	ReleaseAssignment(ctx context.Context, orderID, technicianID uuid.UUID) (int64, error)
	AppendNote(ctx context.Context, note *models.WorkOrderNote) error
	ListNotes(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderNote, error)
	FindPendingCriticalBefore(ctx context.Context, cutoff time.Time) ([]models.WorkOrder, error)
	CountByStatus(ctx context.Context) (map[enums.WorkOrderStatus]int64, error)
}
