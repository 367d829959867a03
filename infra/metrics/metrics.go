package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

const namespace = "itops_pump_diagnosis"

// PromMetrics 诊断指标，使用独立 registry
type PromMetrics struct {
	registry *prometheus.Registry

	diagnoses *prometheus.CounterVec   // source, report_type
	risks     *prometheus.CounterVec   // risk_level
	faults    *prometheus.CounterVec   // fault
	rejected  *prometheus.CounterVec   // source, reason
	latency   *prometheus.HistogramVec // source
}

func NewPromMetrics() *PromMetrics {
	m := &PromMetrics{
		registry: prometheus.NewRegistry(),
		diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnoses_total",
			Help:      "Completed diagnoses by source and report type.",
		}, []string{"source", "report_type"}),
		risks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_level_total",
			Help:      "Risk matrix outcomes of comprehensive diagnoses.",
		}, []string{"risk_level"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primary_fault_total",
			Help:      "Primary fault reported by Bayesian fusion.",
		}, []string{"fault"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_measurements_total",
			Help:      "Measurement records rejected before diagnosis.",
		}, []string{"source", "reason"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnosis_duration_seconds",
			Help:      "Engine run latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"source"}),
	}
	m.registry.MustRegister(
		m.diagnoses, m.risks, m.faults, m.rejected, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDiagnosis 记录一次完成的诊断
func (m *PromMetrics) ObserveDiagnosis(source string, result *domain.DiagnosisResult, elapsed time.Duration) {
	m.latency.WithLabelValues(source).Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	m.diagnoses.WithLabelValues(source, string(result.ReportType)).Inc()
	if result.Risk != nil {
		m.risks.WithLabelValues(string(result.Risk.RiskLevel)).Inc()
	}
	if result.Fusion != nil {
		m.faults.WithLabelValues(string(result.Fusion.PrimaryFault)).Inc()
	}
}

func (m *PromMetrics) IncRejected(source, reason string) {
	m.rejected.WithLabelValues(source, reason).Inc()
}

// Handler 暴露 /metrics
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
