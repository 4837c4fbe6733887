package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/metrics"
)

const defaultCriticalPendingMaxAge = 30 * time.Minute

type pendingCriticalFinder interface {
	FindPendingCriticalBefore(ctx context.Context, cutoff time.Time) ([]models.WorkOrder, error)
}

// CriticalPendingJobParams configure the unattended-critical alert job.
type CriticalPendingJobParams struct {
	Logger  *logger.Logger
	Repo    pendingCriticalFinder
	Metrics *metrics.WorkOrderMetrics
	MaxAge  time.Duration
}

// NewCriticalPendingJob flags critical work orders that have sat unassigned
// past the allowed age.
func NewCriticalPendingJob(params CriticalPendingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("work orders repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCriticalPendingMaxAge
	}
	return &criticalPendingJob{
		logg:    params.Logger,
		repo:    params.Repo,
		metrics: params.Metrics,
		maxAge:  maxAge,
		now:     time.Now,
	}, nil
}

type criticalPendingJob struct {
	logg    *logger.Logger
	repo    pendingCriticalFinder
	metrics *metrics.WorkOrderMetrics
	maxAge  time.Duration
	now     func() time.Time
}

func (j *criticalPendingJob) Name() string { return "critical-pending-alert" }

func (j *criticalPendingJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	orders, err := j.repo.FindPendingCriticalBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale critical orders: %w", err)
	}

	if j.metrics != nil {
		j.metrics.SetPendingCritical(int64(len(orders)))
	}

	for _, order := range orders {
		orderCtx := j.logg.WithWorkOrderID(ctx, order.ID.String())
		orderCtx = j.logg.WithZone(orderCtx, order.Zone)
		orderCtx = j.logg.WithField(orderCtx, "age_minutes", int(j.now().UTC().Sub(order.CreatedAt).Minutes()))
		j.logg.Warn(orderCtx, "critical work order unassigned past threshold")
	}
	return nil
}
