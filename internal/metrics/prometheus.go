// Package metrics instruments the pipeline the way DMRHub's
// internal/metrics/prometheus.go instruments its services: a Metrics
// struct of prometheus.* fields built once, registered against a
// caller-supplied Registerer, and a Record*/Increment* method per
// instrument so call sites never touch the prometheus API directly.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every instrument the pipeline reports to. Unlike
// DMRHub's package-level prometheus.MustRegister against the default
// registry, NewMetrics takes an explicit prometheus.Registerer so tests
// can register against a throwaway registry instead of colliding on the
// global one across test functions.
type Metrics struct {
	StageStepsTotal         *prometheus.CounterVec
	WarningsTotal           *prometheus.CounterVec
	ForcedPhraseEndsTotal   prometheus.Counter
	IdentityFallbacksTotal  prometheus.Counter
	DepthLimitHitsTotal     prometheus.Counter
	TransductionSolutions   prometheus.Histogram
}

// NewMetrics builds every instrument and registers them against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		StageStepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picofst_stage_steps_total",
			Help: "The total number of Step calls made to a pipeline stage",
		}, []string{"stage", "status"}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picofst_warnings_total",
			Help: "The total number of warnings raised through the warning sink, by kind",
		}, []string{"kind"}),
		ForcedPhraseEndsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picofst_forced_phrase_ends_total",
			Help: "The total number of phrase ends forced by a stage's head-count capacity",
		}),
		IdentityFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picofst_identity_fallbacks_total",
			Help: "The total number of transduction searches that found no solution and fell back to identity",
		}),
		DepthLimitHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picofst_depth_limit_hits_total",
			Help: "The total number of times a transduction search hit its alt-descriptor depth limit",
		}),
		TransductionSolutions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "picofst_transduction_solutions",
			Help:    "Number of complete solutions found per transduction search",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
	}
	metrics.register(reg)
	return metrics
}

func (m *Metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.StageStepsTotal)
	reg.MustRegister(m.WarningsTotal)
	reg.MustRegister(m.ForcedPhraseEndsTotal)
	reg.MustRegister(m.IdentityFallbacksTotal)
	reg.MustRegister(m.DepthLimitHitsTotal)
	reg.MustRegister(m.TransductionSolutions)
}

// RecordStageStep records one Step call for stage, tagged with the
// resulting stage.Status rendered as a lowercase string by the caller.
func (m *Metrics) RecordStageStep(stage, status string) {
	m.StageStepsTotal.WithLabelValues(stage, status).Inc()
}

// RecordWarning records one warning-sink call, tagged by kind.
func (m *Metrics) RecordWarning(kind string) {
	m.WarningsTotal.WithLabelValues(kind).Inc()
}

// IncrementForcedPhraseEnds records a forced phrase/window end.
func (m *Metrics) IncrementForcedPhraseEnds() {
	m.ForcedPhraseEndsTotal.Inc()
}

// IncrementIdentityFallbacks records an identity-fallback transduction.
func (m *Metrics) IncrementIdentityFallbacks() {
	m.IdentityFallbacksTotal.Inc()
}

// IncrementDepthLimitHits records a search that hit its depth limit.
func (m *Metrics) IncrementDepthLimitHits() {
	m.DepthLimitHitsTotal.Inc()
}

// RecordTransductionSolutions records the number of complete solutions a
// single Transduce call found.
func (m *Metrics) RecordTransductionSolutions(count float64) {
	m.TransductionSolutions.Observe(count)
}
