package slot

import "math/rand/v2"

// FeatureResult is the outcome of one free-spin cascade.
type FeatureResult struct {
	Win        float64
	Spins      int
	Retriggers int
	Capped     bool
}

// FeatureEngine plays free-spin cascades for one goroutine. Free spins
// reuse the base reels; every win is multiplied, and scatters landed
// during the cascade add spins to the remaining counter when the model
// allows retriggers.
type FeatureEngine struct {
	m       *Model
	eval    *Evaluator
	scratch *Outcome
}

func NewFeatureEngine(m *Model) *FeatureEngine {
	return &FeatureEngine{m: m, eval: NewEvaluator(m), scratch: m.NewOutcome()}
}

// Trigger reports the free spins awarded by a base-game window, zero when
// the scatter count is not in the trigger table.
func (m *Model) Trigger(scatters int) int {
	return m.FreeSpinTrigger[scatters]
}

// Run plays a cascade of awarded free spins to completion. The cascade
// stops early, with Capped set, once MaxFreeSpins total spins have been
// played; a capped cascade keeps the winnings accumulated so far.
func (f *FeatureEngine) Run(rng *rand.Rand, awarded int) FeatureResult {
	var res FeatureResult
	m := f.m
	remaining := awarded
	for remaining > 0 {
		if res.Spins >= m.MaxFreeSpins {
			res.Capped = true
			break
		}
		remaining--
		res.Spins++
		m.SpinInto(f.scratch, rng)
		res.Win += f.eval.Total(f.scratch) * m.FreeSpinMultiplier
		if m.Retrigger {
			if extra := m.Trigger(m.CountScatters(f.scratch)); extra > 0 {
				remaining += extra
				res.Retriggers++
			}
		}
	}
	return res
}
