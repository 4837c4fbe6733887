package cron

import (
	"context"
	"fmt"

	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/metrics"
)

type statusCounter interface {
	CountByStatus(ctx context.Context) (map[enums.WorkOrderStatus]int64, error)
}

// StatusGaugeJobParams configure the backlog gauge job.
type StatusGaugeJobParams struct {
	Logger  *logger.Logger
	Repo    statusCounter
	Metrics *metrics.WorkOrderMetrics
}

// NewStatusGaugeJob publishes per-status work order counts to Prometheus.
func NewStatusGaugeJob(params StatusGaugeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("work orders repository required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("work order metrics required")
	}
	return &statusGaugeJob{
		logg:    params.Logger,
		repo:    params.Repo,
		metrics: params.Metrics,
	}, nil
}

type statusGaugeJob struct {
	logg    *logger.Logger
	repo    statusCounter
	metrics *metrics.WorkOrderMetrics
}

func (j *statusGaugeJob) Name() string { return "work-order-status-gauge" }

func (j *statusGaugeJob) Run(ctx context.Context) error {
	counts, err := j.repo.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count work orders: %w", err)
	}

	// Statuses with no rows still reset their gauge to zero.
	for _, status := range []enums.WorkOrderStatus{
		enums.WorkOrderStatusPending,
		enums.WorkOrderStatusAssigned,
		enums.WorkOrderStatusInProgress,
		enums.WorkOrderStatusCompleted,
		enums.WorkOrderStatusCancelled,
	} {
		j.metrics.SetStatusCount(status.String(), counts[status])
	}
	return nil
}
