package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwilachanda/aquaops-backend/internal/technicians"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service coordinates technician assignment. All writes go through a single
// conditional update so a concurrent assignment can never be overwritten.
type Service interface {
	Assign(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
	Unassign(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
}

type service struct {
	orders workorders.Repository
	techs  technicians.Service
	tx     txRunner
}

// NewService builds an assignment coordinator.
func NewService(orders workorders.Repository, techs technicians.Service, tx txRunner) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("work orders repository required")
	}
	if techs == nil {
		return nil, fmt.Errorf("technicians service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{orders: orders, techs: techs, tx: tx}, nil
}

func (s *service) Assign(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if technicianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}

	// Re-assigning the technician who already holds the order is a no-op.
	if order.Status == enums.WorkOrderStatusAssigned && order.AssigneeID != nil && *order.AssigneeID == technicianID {
		return order, nil
	}
	if order.Status != enums.WorkOrderStatusPending || order.AssigneeID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAssignmentConflict, "work order is not open for assignment")
	}

	view, err := s.techs.Get(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if view.Availability != enums.TechnicianAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeTechnicianUnavailable,
			fmt.Sprintf("technician is %s", view.Availability))
	}

	var updated *models.WorkOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		// The guard re-checks pending and no assignee at write time. Losing
		// the race between the availability check and here surfaces as zero
		// affected rows, never as an overwrite.
		affected, err := repo.ClaimPending(ctx, orderID, technicianID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim work order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeAssignmentConflict, "work order was claimed concurrently")
		}

		note := &models.WorkOrderNote{
			WorkOrderID: orderID,
			AuthorID:    actor.ID,
			AuthorRole:  actor.Role,
			Kind:        enums.NoteKindStatusChange,
			Body:        fmt.Sprintf("assigned technician %s", technicianID),
		}
		if err := repo.AppendNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append assignment note")
		}

		updated, err = s.loadOrder(ctx, repo, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Unassign(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}

	// Unassigning an order that is already back in the pool is a no-op.
	if order.Status == enums.WorkOrderStatusPending && order.AssigneeID == nil {
		return order, nil
	}
	if order.Status != enums.WorkOrderStatusAssigned || order.AssigneeID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "work order cannot be unassigned in its current status")
	}
	holder := *order.AssigneeID

	var updated *models.WorkOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		affected, err := repo.ReleaseAssignment(ctx, orderID, holder)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release work order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeAssignmentConflict, "work order changed concurrently")
		}

		note := &models.WorkOrderNote{
			WorkOrderID: orderID,
			AuthorID:    actor.ID,
			AuthorRole:  actor.Role,
			Kind:        enums.NoteKindStatusChange,
			Body:        fmt.Sprintf("unassigned technician %s", holder),
		}
		if err := repo.AppendNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append unassignment note")
		}

		updated, err = s.loadOrder(ctx, repo, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadOrder(ctx context.Context, repo workorders.Repository, orderID uuid.UUID) (*models.WorkOrder, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
	}
	return order, nil
}
