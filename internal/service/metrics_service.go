package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decode outcome labels.
const (
	DecodeSuccess      = "success"
	DecodeRejected     = "rejected"
	DecodeServiceError = "service_error"
)

// Import row labels.
const (
	ImportRowImported  = "imported"
	ImportRowInvalid   = "invalid"
	ImportRowDuplicate = "duplicate"
	ImportRowFailed    = "failed"
)

// Augmentation labels.
const (
	AugmentUpdated     = "updated"
	AugmentQuarantined = "quarantined"
	AugmentFailed      = "failed"
)

// MetricsService encapsulates Prometheus instrumentation. A nil service is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	decodeTotal     *prometheus.CounterVec
	decodeDuration  prometheus.Histogram
	importRows      *prometheus.CounterVec
	augmentTotal    *prometheus.CounterVec
	correctionTotal *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	decodeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vin_decode_total",
		Help: "VIN decode calls by outcome",
	}, []string{"outcome"})

	decodeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vin_decode_duration_seconds",
		Help:    "Latency of VIN decode calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vehicle_import_rows_total",
		Help: "Imported source rows by result",
	}, []string{"result"})

	augmentTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vehicle_augment_total",
		Help: "Vehicles processed by bulk augmentation by result",
	}, []string{"result"})

	correctionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vehicle_correction_total",
		Help: "Error record corrections by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, decodeTotal, decodeDuration, importRows, augmentTotal, correctionTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		decodeTotal:     decodeTotal,
		decodeDuration:  decodeDuration,
		importRows:      importRows,
		augmentTotal:    augmentTotal,
		correctionTotal: correctionTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry is exposed for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDecode records one decoder call.
func (m *MetricsService) ObserveDecode(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.decodeTotal.WithLabelValues(outcome).Inc()
	m.decodeDuration.Observe(duration.Seconds())
}

// AddImportRows counts import rows by result.
func (m *MetricsService) AddImportRows(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(result).Add(float64(n))
}

// AddAugmented counts vehicles handled by a bulk pass.
func (m *MetricsService) AddAugmented(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.augmentTotal.WithLabelValues(result).Add(float64(n))
}

// IncCorrection counts one correction attempt.
func (m *MetricsService) IncCorrection(outcome string) {
	if m == nil {
		return
	}
	m.correctionTotal.WithLabelValues(outcome).Inc()
}
