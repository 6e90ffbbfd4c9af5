package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ihuguet/picofst/internal/metrics"
	"github.com/ihuguet/picofst/transduce"
)

func TestStageObserverForcedPhraseEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	var gotKind, gotDetail string
	warn := func(kind, detail string) { gotKind, gotDetail = kind, detail }

	o := metrics.NewStageObserver("sastage", m, warn)
	o.ForcedPhraseEnd()

	if got := testutil.ToFloat64(m.ForcedPhraseEndsTotal); got != 1 {
		t.Errorf("ForcedPhraseEndsTotal = %v, want 1", got)
	}
	if gotKind != "forced-phrase-end" {
		t.Errorf("warn kind = %q, want forced-phrase-end", gotKind)
	}
	if gotDetail == "" {
		t.Error("expected non-empty warn detail")
	}
}

func TestStageObserverForcedWindowEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	warn := func(kind, detail string) {}

	o := metrics.NewStageObserver("sphostage", m, warn)
	o.ForcedWindowEnd()

	if got := testutil.ToFloat64(m.ForcedPhraseEndsTotal); got != 1 {
		t.Errorf("ForcedPhraseEndsTotal = %v, want 1", got)
	}
}

func TestStageObserverTransductionStatsDepthLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	var kinds []string
	warn := func(kind, detail string) { kinds = append(kinds, kind) }

	o := metrics.NewStageObserver("sastage", m, warn)
	o.TransductionStats(transduce.Stats{Solutions: 1, DepthLimitHits: 2})

	if got := testutil.ToFloat64(m.DepthLimitHitsTotal); got != 1 {
		t.Errorf("DepthLimitHitsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IdentityFallbacksTotal); got != 0 {
		t.Errorf("IdentityFallbacksTotal = %v, want 0", got)
	}
	if len(kinds) != 1 || kinds[0] != "depth-limit-hit" {
		t.Errorf("warn kinds = %v, want [depth-limit-hit]", kinds)
	}
}

func TestStageObserverTransductionStatsIdentityFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	var kinds []string
	warn := func(kind, detail string) { kinds = append(kinds, kind) }

	o := metrics.NewStageObserver("sastage", m, warn)
	o.TransductionStats(transduce.Stats{Solutions: 0, DepthLimitHits: 0})

	if got := testutil.ToFloat64(m.IdentityFallbacksTotal); got != 1 {
		t.Errorf("IdentityFallbacksTotal = %v, want 1", got)
	}
	if len(kinds) != 1 || kinds[0] != "identity-fallback" {
		t.Errorf("warn kinds = %v, want [identity-fallback]", kinds)
	}
}

func TestStageObserverTransductionStatsCleanSolutionNoWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	var kinds []string
	warn := func(kind, detail string) { kinds = append(kinds, kind) }

	o := metrics.NewStageObserver("sastage", m, warn)
	o.TransductionStats(transduce.Stats{Solutions: 3, DepthLimitHits: 0})

	if len(kinds) != 0 {
		t.Errorf("expected no warnings for a clean solution, got %v", kinds)
	}
}
