package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all ontometer metrics, registered on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	AssessmentsTotal   *prometheus.CounterVec
	AssessmentDuration prometheus.Histogram
	StageDuration      *prometheus.HistogramVec
	ReasonerOutcomes   *prometheus.CounterVec
	OntologyTriples    prometheus.Histogram
	OntologyClasses    prometheus.Histogram
	GateRuns           *prometheus.CounterVec
	ExternalErrors     *prometheus.CounterVec
	ActiveAssessments  prometheus.Gauge
}

// NewMetrics creates ontometer metrics on a fresh registry that also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(r)

	return &Metrics{
		Registry: r,

		AssessmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontometer_assessments_total",
			Help: "Total ontology assessments by result",
		}, []string{"result"}),
		AssessmentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontometer_assessment_duration_seconds",
			Help:    "End-to-end assessment duration",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ontometer_stage_duration_seconds",
			Help:    "Duration of each assessment stage",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 0.1ms to ~7min
		}, []string{"stage"}),
		ReasonerOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontometer_reasoner_outcomes_total",
			Help: "Consistency check outcomes by reasoner",
		}, []string{"reasoner", "outcome"}),
		OntologyTriples: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontometer_ontology_triples",
			Help:    "Triples per assessed ontology",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		}),
		OntologyClasses: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontometer_ontology_classes",
			Help:    "Declared classes per assessed ontology",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		GateRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontometer_gate_runs_total",
			Help: "Quality gate pipeline runs by status",
		}, []string{"status"}),
		ExternalErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontometer_external_errors_total",
			Help: "Failed calls to external services",
		}, []string{"service"}),
		ActiveAssessments: f.NewGauge(prometheus.GaugeOpts{
			Name: "ontometer_active_assessments",
			Help: "Assessments currently running",
		}),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordAssessment records a finished assessment.
func (m *Metrics) RecordAssessment(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.AssessmentsTotal.WithLabelValues(result).Inc()
	m.AssessmentDuration.Observe(duration.Seconds())
}

// RecordStage records the duration of one assessment stage.
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordReasoner records a consistency check outcome.
func (m *Metrics) RecordReasoner(reasoner, outcome string) {
	m.ReasonerOutcomes.WithLabelValues(reasoner, outcome).Inc()
}

// RecordOntology records the size of an assessed ontology.
func (m *Metrics) RecordOntology(triples, classes int) {
	m.OntologyTriples.Observe(float64(triples))
	m.OntologyClasses.Observe(float64(classes))
}

// RecordGates records a gate pipeline run.
func (m *Metrics) RecordGates(status string) {
	m.GateRuns.WithLabelValues(status).Inc()
}

// RecordExternalError records a failed call to service.
func (m *Metrics) RecordExternalError(service string) {
	m.ExternalErrors.WithLabelValues(service).Inc()
}

// Global metrics instance
var globalMetrics *Metrics
var metricsOnce sync.Once

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics()
	})
	return globalMetrics
}
