package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gzlj/hadoop-blueprint/pkg/infra/processor"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/strategy"
)

var (
	namespace = "hadoop"
	subsystem = "blueprint"

	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of blueprint operations by operation and response code",
		},
		[]string{"operation", "code"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Time spent resolving or exporting a cluster document",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of failed blueprint operations by reason",
		},
		[]string{"reason"},
	)

	updatedConfigTypes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "updated_config_types_total",
			Help:      "Total number of config types changed by cluster resolution",
		},
	)
)

func observe(operation string, code int, start time.Time) {
	requestCounter.WithLabelValues(operation, strconv.Itoa(code)).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, strategy.ErrAmbiguousPlacement):
		return "ambiguous_placement"
	case errors.Is(err, strategy.ErrUnsatisfiablePlacement):
		return "unsatisfiable_placement"
	case errors.Is(err, strategy.ErrUnknownHostGroup):
		return "unknown_host_group"
	case errors.Is(err, strategy.ErrInvalidHostCount):
		return "invalid_host_count"
	case errors.Is(err, processor.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}

func recordError(err error) {
	errorCounter.WithLabelValues(errorReason(err)).Inc()
}
