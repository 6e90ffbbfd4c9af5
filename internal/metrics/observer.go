package metrics

import (
	"github.com/ihuguet/picofst/internal/logging"
	"github.com/ihuguet/picofst/transduce"
)

// StageObserver adapts a Metrics instance and a logging.WarnSink into
// the sastage.Observer/sphostage.Observer interfaces. Both stage
// interfaces ask for a TransductionStats(transduce.Stats) method plus
// one forced-end method named differently per stage (ForcedPhraseEnd,
// ForcedWindowEnd); StageObserver implements both names so the same
// value satisfies either interface without a per-stage wrapper type.
type StageObserver struct {
	stage string
	m     *Metrics
	warn  logging.WarnSink
}

// NewStageObserver returns a StageObserver reporting under the given
// stage name, which prefixes the detail message of every warning it
// sends; the counters it increments carry no stage label.
func NewStageObserver(stage string, m *Metrics, warn logging.WarnSink) *StageObserver {
	return &StageObserver{stage: stage, m: m, warn: warn}
}

// ForcedPhraseEnd satisfies sastage.Observer.
func (o *StageObserver) ForcedPhraseEnd() {
	o.m.IncrementForcedPhraseEnds()
	o.m.RecordWarning("forced-phrase-end")
	o.warn("forced-phrase-end", o.stage+": head capacity reached, forcing a phrase end")
}

// ForcedWindowEnd satisfies sphostage.Observer.
func (o *StageObserver) ForcedWindowEnd() {
	o.m.IncrementForcedPhraseEnds()
	o.m.RecordWarning("forced-window-end")
	o.warn("forced-window-end", o.stage+": head capacity reached, forcing a window end")
}

// TransductionStats satisfies both stage Observer interfaces.
func (o *StageObserver) TransductionStats(stats transduce.Stats) {
	o.m.RecordTransductionSolutions(float64(stats.Solutions))
	if stats.DepthLimitHits > 0 {
		o.m.IncrementDepthLimitHits()
		o.m.RecordWarning("depth-limit-hit")
		o.warn("depth-limit-hit", o.stage+": transduction search hit its depth limit")
	}
	if stats.Solutions == 0 {
		o.m.IncrementIdentityFallbacks()
		o.m.RecordWarning("identity-fallback")
		o.warn("identity-fallback", o.stage+": transduction search found no solution, falling back to identity")
	}
}
