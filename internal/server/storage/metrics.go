package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for object store operations.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
	RecordDelete(duration time.Duration, err error)
}

// PrometheusObserver exports gateway metrics to Prometheus.
type PrometheusObserver struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	bytes    prometheus.Counter
}

// NewPrometheusObserver registers the gateway metrics with reg, reusing
// collectors that are already registered.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "memorial_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of object store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Count of failed object store operations.",
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	bytes, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Bytes successfully stored.",
	}))
	if err != nil {
		return nil, err
	}
	o.duration, o.failures, o.bytes = duration, failures, bytes
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register storage metric: %w", err)
	}
	return c, nil
}

func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	o.duration.WithLabelValues("upload").Observe(duration.Seconds())
	if err != nil {
		o.failures.WithLabelValues("upload").Inc()
		return
	}
	o.bytes.Add(float64(sizeBytes))
}

func (o *PrometheusObserver) RecordDelete(duration time.Duration, err error) {
	o.duration.WithLabelValues("delete").Observe(duration.Seconds())
	if err != nil {
		o.failures.WithLabelValues("delete").Inc()
	}
}

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int64, error) {}

func (nopObserver) RecordDelete(time.Duration, error) {}

// NopObserver discards all measurements.
func NopObserver() Observer { return nopObserver{} }
