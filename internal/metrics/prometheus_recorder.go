package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	transformDuration prom.Histogram
	buildDuration     prom.Histogram
	docResults        *prom.CounterVec
	diagnostics       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the build metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transformDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mystbuilder",
			Name:      "transform_duration_seconds",
			Help:      "Duration of individual document transformations",
			Buckets:   prom.DefBuckets,
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mystbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		docResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mystbuilder",
			Name:      "doc_results_total",
			Help:      "Per-document build results by outcome",
		}, []string{"result"}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mystbuilder",
			Name:      "transform_diagnostics_total",
			Help:      "Recoverable transform diagnostics by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.transformDuration, pr.buildDuration, pr.docResults, pr.diagnostics)
	return pr
}

func (p *PrometheusRecorder) ObserveTransformDuration(d time.Duration) {
	if p == nil || p.transformDuration == nil {
		return
	}
	p.transformDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocResult(result ResultLabel) {
	if p == nil || p.docResults == nil {
		return
	}
	p.docResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncDiagnostic(kind string) {
	if p == nil || p.diagnostics == nil {
		return
	}
	p.diagnostics.WithLabelValues(kind).Inc()
}
