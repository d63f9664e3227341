package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/formvault/document-storage-backend/interfaces"
)

// Observer captures telemetry for backend operations. The resolver wraps
// every backend it hands out, so callers see instrumented backends without
// knowing about metrics.
type Observer interface {
	RecordOperation(backend interfaces.BackendKind, operation string, duration time.Duration, err error)
	RecordUpload(backend interfaces.BackendKind, duration time.Duration, sizeBytes int64, err error)
}

// PrometheusObserver exports backend operation metrics to Prometheus.
type PrometheusObserver struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	uploadedBytes     *prometheus.CounterVec
}

// NewPrometheusObserver registers duration, error and volume metrics under
// the given namespace. Registering twice in one process reuses the existing
// collectors.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	observer := &PrometheusObserver{
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Latency of storage backend operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operation_errors_total",
			Help:      "Count of failed storage backend operations.",
		}, []string{"backend", "operation"}),
		uploadedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_uploaded_bytes_total",
			Help:      "Cumulative payload size successfully written to storage.",
		}, []string{"backend"}),
	}

	collectors := []prometheus.Collector{observer.operationDuration, observer.operationErrors, observer.uploadedBytes}
	for i, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, fmt.Errorf("failed to register storage metric: %w", err)
			}
			collectors[i] = are.ExistingCollector
		}
	}
	observer.operationDuration = collectors[0].(*prometheus.HistogramVec)
	observer.operationErrors = collectors[1].(*prometheus.CounterVec)
	observer.uploadedBytes = collectors[2].(*prometheus.CounterVec)

	return observer, nil
}

// RecordOperation tracks duration and failures of a backend call.
func (o *PrometheusObserver) RecordOperation(backend interfaces.BackendKind, operation string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(backend.String(), operation).Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(backend.String(), operation).Inc()
	}
}

// RecordUpload tracks a write including its payload size.
func (o *PrometheusObserver) RecordUpload(backend interfaces.BackendKind, duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(backend.String(), "put").Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(backend.String(), "put").Inc()
		return
	}
	o.uploadedBytes.WithLabelValues(backend.String()).Add(float64(sizeBytes))
}

type nopObserver struct{}

func (nopObserver) RecordOperation(interfaces.BackendKind, string, time.Duration, error) {}

func (nopObserver) RecordUpload(interfaces.BackendKind, time.Duration, int64, error) {}

// NewNopObserver returns an observer that records nothing, for tests and
// metric-less deployments.
func NewNopObserver() Observer {
	return nopObserver{}
}

// instrumentedBackend forwards every call to the wrapped backend and reports
// it to the observer.
type instrumentedBackend struct {
	interfaces.StorageBackend
	obs Observer
}

func instrument(backend interfaces.StorageBackend, obs Observer) interfaces.StorageBackend {
	if obs == nil {
		return backend
	}
	if _, ok := obs.(nopObserver); ok {
		return backend
	}
	return &instrumentedBackend{StorageBackend: backend, obs: obs}
}

func (b *instrumentedBackend) Put(ctx context.Context, name interfaces.OpaqueName, data []byte, contentType string) error {
	start := time.Now()
	err := b.StorageBackend.Put(ctx, name, data, contentType)
	b.obs.RecordUpload(b.Kind(), time.Since(start), int64(len(data)), err)
	return err
}

func (b *instrumentedBackend) Get(ctx context.Context, name interfaces.OpaqueName) ([]byte, error) {
	start := time.Now()
	data, err := b.StorageBackend.Get(ctx, name)
	b.obs.RecordOperation(b.Kind(), "get", time.Since(start), err)
	return data, err
}

func (b *instrumentedBackend) Delete(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	start := time.Now()
	existed, err := b.StorageBackend.Delete(ctx, name)
	b.obs.RecordOperation(b.Kind(), "delete", time.Since(start), err)
	return existed, err
}

func (b *instrumentedBackend) Head(ctx context.Context, name interfaces.OpaqueName) (interfaces.ObjectInfo, error) {
	start := time.Now()
	info, err := b.StorageBackend.Head(ctx, name)
	b.obs.RecordOperation(b.Kind(), "head", time.Since(start), err)
	return info, err
}
