package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/nextplay/pipeline"
)

const (
	LabelOperation = "operation"
	LabelNode      = "node"
	LabelKind      = "kind"
	LabelResult    = "result"
)

var (
	OperationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nextplay",
		Subsystem: "engine",
		Name:      "operation_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{LabelOperation, LabelResult})
	NodeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nextplay",
		Subsystem: "pipeline",
		Name:      "node_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{LabelNode, LabelKind})
	DegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nextplay",
		Subsystem: "engine",
		Name:      "degraded_total",
	})
	SnapshotRebuildTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nextplay",
		Subsystem: "engine",
		Name:      "snapshot_rebuild_total",
	})
	CandidateCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nextplay",
		Subsystem: "engine",
		Name:      "last_candidate_count",
	})
)

func observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OperationSeconds.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func observeNode(node pipeline.Node, elapsed time.Duration, _ int, _ error) {
	NodeSeconds.WithLabelValues(node.Name(), string(node.Kind())).Observe(elapsed.Seconds())
}
