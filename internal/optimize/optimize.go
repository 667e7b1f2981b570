// Package optimize tunes reel symbol frequencies toward a target RTP by
// re-simulating mutated models until the measured RTP lands inside
// tolerance.
package optimize

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"slotsim/internal/slot"
)

// Run statuses.
const (
	StatusConverged  = "converged"
	StatusBestEffort = "best_effort"
)

// Config drives one optimization run. Workers and Seed are passed through
// to the per-iteration simulations.
type Config struct {
	TargetRTP         float64
	Tolerance         float64
	MaxIterations     int
	SpinsPerIteration int64
	Workers           int
	Seed              uint64
	Logger            *zap.Logger
}

// Iteration is one entry of the run history.
type Iteration struct {
	Iteration int     `json:"iteration"`
	RTP       float64 `json:"rtp"`
	Deviation float64 `json:"deviation"`
}

// Run is the outcome of an optimization. Model is the best candidate
// seen across all iterations, re-validated with a longer final batch.
type Run struct {
	Status         string           `json:"status"`
	TargetRTP      float64          `json:"target_rtp"`
	FinalRTP       float64          `json:"final_rtp"`
	FinalDeviation float64          `json:"final_deviation"`
	BestDeviation  float64          `json:"best_deviation"`
	Iterations     int              `json:"iterations"`
	History        []Iteration      `json:"history"`
	ReelLengths    []int            `json:"reel_lengths"`
	Strips         []slot.ReelStrip `json:"optimized_strips"`
	Model          *slot.Model      `json:"-"`
}

// each iteration simulates on its own seed so successive measurements of
// the same candidate are independent
const _iterSeedStride = 0x9E3779B9

// Optimize mutates the model's reel strips until the simulated RTP is
// within tolerance of the target, or MaxIterations is exhausted. The
// input model is never modified. The returned run carries the best
// candidate even when the loop did not converge.
func Optimize(ctx context.Context, m *slot.Model, cfg Config) (*Run, error) {
	if m == nil {
		return nil, errors.New("optimize: nil model")
	}
	if cfg.TargetRTP <= 0 || cfg.Tolerance <= 0 {
		return nil, errors.New("optimize: target rtp and tolerance must be positive")
	}
	if cfg.MaxIterations <= 0 || cfg.SpinsPerIteration <= 0 {
		return nil, errors.New("optimize: iteration budget must be positive")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	high, low := symbolPools(m)
	if len(high) == 0 {
		return nil, errors.New("optimize: model has no paying symbols to adjust")
	}
	rng := slot.NewRand(cfg.Seed)

	current := m.Clone()
	best := current
	bestDev := math.Inf(1)
	run := &Run{Status: StatusBestEffort, TargetRTP: cfg.TargetRTP}

	for i := 0; i < cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim := &slot.Simulator{
			Model:   current,
			Workers: cfg.Workers,
			Seed:    cfg.Seed + uint64(i)*_iterSeedStride,
		}
		st, err := sim.Run(ctx, cfg.SpinsPerIteration)
		if err != nil {
			return nil, err
		}
		rtp := st.RTP()
		dev := rtp - cfg.TargetRTP

		run.Iterations = i + 1
		run.History = append(run.History, Iteration{
			Iteration: i + 1,
			RTP:       round4(rtp),
			Deviation: round4(math.Abs(dev)),
		})
		log.Info("optimizer iteration",
			zap.Int("iteration", i+1),
			zap.Float64("rtp", round4(rtp)),
			zap.Float64("deviation", round4(dev)))

		if math.Abs(dev) < bestDev {
			bestDev = math.Abs(dev)
			best = current
		}
		if math.Abs(dev) <= cfg.Tolerance {
			run.Status = StatusConverged
			break
		}

		counts := stripCounts(current)
		adjust(counts, dev, i, high, low, rng)
		next, err := rebuild(current, counts, rng)
		if err != nil {
			return nil, err
		}
		current = next
	}

	// best candidate gets a longer confirmation batch
	final := &slot.Simulator{Model: best, Workers: cfg.Workers, Seed: cfg.Seed + 1}
	st, err := final.Run(ctx, 2*cfg.SpinsPerIteration)
	if err != nil {
		return nil, err
	}
	run.FinalRTP = round4(st.RTP())
	run.FinalDeviation = round4(math.Abs(st.RTP() - cfg.TargetRTP))
	run.BestDeviation = round4(bestDev)
	run.Model = best
	run.Strips = best.Strips
	run.ReelLengths = make([]int, len(best.Strips))
	for i, s := range best.Strips {
		run.ReelLengths[i] = len(s)
	}
	log.Info("optimizer finished",
		zap.String("status", run.Status),
		zap.Int("iterations", run.Iterations),
		zap.Float64("final_rtp", run.FinalRTP),
		zap.Float64("best_deviation", run.BestDeviation))
	return run, nil
}

// symbolPools ranks paying symbols by their top multiplier. The three
// most valuable form the removal pool for lowering RTP; the remaining
// paying symbols form the filler pool, falling back to non-paying
// low-tier symbols when every paying symbol is in the top three.
func symbolPools(m *slot.Model) (high, low []string) {
	var paying []slot.Symbol
	for _, s := range m.Symbols {
		if len(s.Pays) > 0 {
			paying = append(paying, s)
		}
	}
	sort.SliceStable(paying, func(i, j int) bool {
		return paying[i].MaxPay() > paying[j].MaxPay()
	})
	for i, s := range paying {
		if i < 3 {
			high = append(high, s.ID)
		} else {
			low = append(low, s.ID)
		}
	}
	if len(low) == 0 {
		for _, s := range m.Symbols {
			if len(s.Pays) == 0 && s.Tier == slot.TierLow {
				low = append(low, s.ID)
			}
		}
	}
	return high, low
}

// stripCounts reduces each strip to per-symbol copy counts.
func stripCounts(m *slot.Model) []map[string]int {
	counts := make([]map[string]int, len(m.Strips))
	for r, strip := range m.Strips {
		c := make(map[string]int)
		for _, id := range strip {
			c[id]++
		}
		counts[r] = c
	}
	return counts
}

// adjust shifts copies between high- and low-value symbols on every reel.
// RTP above target swaps high-value copies for low-value ones; below
// target mirrors the swap. The step shrinks as iterations accumulate so
// late adjustments cannot oscillate past the tolerance window.
func adjust(counts []map[string]int, deviation float64, iteration int, high, low []string, rng *rand.Rand) {
	strength := int(math.Round(math.Abs(deviation) * 2 / (1 + float64(iteration)*0.3)))
	if strength < 1 {
		strength = 1
	}
	for _, reel := range counts {
		for u := 0; u < strength; u++ {
			if deviation > 0 {
				swap(reel, high, low, rng)
			} else {
				swap(reel, low, high, rng)
			}
		}
	}
}

// swap removes one copy of the first removable symbol from the from-pool
// and adds one copy of a random to-pool symbol. When nothing in the
// from-pool can shrink, the addition still happens and the strip grows
// by one stop.
func swap(reel map[string]int, from, to []string, rng *rand.Rand) {
	if len(to) == 0 {
		return
	}
	for _, id := range from {
		if reel[id] > 1 {
			reel[id]--
			break
		}
	}
	reel[to[rng.IntN(len(to))]]++
}

// rebuild materializes fresh strips from symbol counts, shuffled so stop
// positions stay uncorrelated, and compiles a new model around them.
func rebuild(m *slot.Model, counts []map[string]int, rng *rand.Rand) (*slot.Model, error) {
	next := m.Clone()
	for r, reel := range counts {
		strip := make(slot.ReelStrip, 0, len(m.Strips[r]))
		// model symbol order keeps expansion deterministic for one seed
		for _, s := range m.Symbols {
			for i := 0; i < reel[s.ID]; i++ {
				strip = append(strip, s.ID)
			}
		}
		rng.Shuffle(len(strip), func(i, j int) {
			strip[i], strip[j] = strip[j], strip[i]
		})
		next.Strips[r] = strip
	}
	return slot.NewModel(*next)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
