package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ComputationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invoice_insights_computation_duration_seconds",
			Help:    "Time spent computing an insights component",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"component"},
	)

	TrainingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_insights_training_total",
			Help: "Payment delay model trainings by result",
		},
		[]string{"result"},
	)

	AnomaliesDetected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "invoice_insights_anomalies_detected",
			Help: "Anomalies found by the latest detection run",
		},
		[]string{"severity"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. It is safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ComputationDuration)
		prometheus.MustRegister(TrainingTotal)
		prometheus.MustRegister(AnomaliesDetected)
		prometheus.MustRegister(HTTPRequests)
	})
}

// ObserveComputation records the time elapsed since start for component
func ObserveComputation(component string, start time.Time) {
	ComputationDuration.WithLabelValues(component).Observe(time.Since(start).Seconds())
}

// RecordTraining counts one training outcome
func RecordTraining(success bool) {
	result := "success"
	if !success {
		result = "insufficient_data"
	}
	TrainingTotal.WithLabelValues(result).Inc()
}

// SetAnomalies publishes the severity counts of the latest detection run
func SetAnomalies(high, medium, low int) {
	AnomaliesDetected.WithLabelValues("high").Set(float64(high))
	AnomaliesDetected.WithLabelValues("medium").Set(float64(medium))
	AnomaliesDetected.WithLabelValues("low").Set(float64(low))
}

// MetricsHandler serves the default registry in the Prometheus text format
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
