package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkOrderMetrics exposes gauges describing the current work order backlog.
type WorkOrderMetrics struct {
	byStatus        *prometheus.GaugeVec
	pendingCritical prometheus.Gauge
}

// NewWorkOrderMetrics registers backlog gauges on the provided registerer.
func NewWorkOrderMetrics(reg prometheus.Registerer) *WorkOrderMetrics {
	if reg == nil {
		return &WorkOrderMetrics{}
	}
	byStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "work_orders_by_status",
		Help: "Number of work orders per lifecycle status.",
	}, []string{"status"})
	pendingCritical := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "work_orders_pending_critical",
		Help: "Critical priority work orders still awaiting assignment.",
	})
	reg.MustRegister(byStatus, pendingCritical)
	return &WorkOrderMetrics{
		byStatus:        byStatus,
		pendingCritical: pendingCritical,
	}
}

// SetStatusCount sets the gauge for one lifecycle status.
func (w *WorkOrderMetrics) SetStatusCount(status string, count int64) {
	if w == nil || w.byStatus == nil {
		return
	}
	w.byStatus.WithLabelValues(normalizeLabel(status)).Set(float64(count))
}

// SetPendingCritical sets the unattended critical backlog gauge.
func (w *WorkOrderMetrics) SetPendingCritical(count int64) {
	if w == nil || w.pendingCritical == nil {
		return
	}
	w.pendingCritical.Set(float64(count))
}
