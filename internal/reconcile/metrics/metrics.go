package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reconciliation worker.
type Metrics struct {
	IterationsTotal      prometheus.Counter
	EventsProcessedTotal prometheus.Counter
	EventsSkippedTotal   prometheus.Counter
	CursorBlock          prometheus.Gauge
}

// New creates and registers all reconciliation metrics.
func New() *Metrics {
	return &Metrics{
		IterationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docseal_reconcile_iterations_total",
			Help: "Completed reconciliation poll iterations",
		}),
		EventsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docseal_reconcile_events_processed_total",
			Help: "Ledger events resolved and upserted into the local index",
		}),
		EventsSkippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docseal_reconcile_events_skipped_total",
			Help: "Ledger events skipped after a resolution or persistence failure",
		}),
		CursorBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docseal_reconcile_cursor_block",
			Help: "Highest fully-processed ledger block number",
		}),
	}
}

func (m *Metrics) RecordIteration() {
	if m == nil {
		return
	}
	m.IterationsTotal.Inc()
}

func (m *Metrics) RecordEventProcessed() {
	if m == nil {
		return
	}
	m.EventsProcessedTotal.Inc()
}

func (m *Metrics) RecordEventSkipped() {
	if m == nil {
		return
	}
	m.EventsSkippedTotal.Inc()
}

func (m *Metrics) SetCursorBlock(block int64) {
	if m == nil {
		return
	}
	m.CursorBlock.Set(float64(block))
}
