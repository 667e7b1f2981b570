package slot

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// per-worker seed offset keeps worker streams disjoint but derived
	// from the one batch seed
	_seedStride = 1337

	_progressStep     = 4096
	_progressInterval = 5 * time.Second
)

// Simulator runs Monte Carlo batches over one model. Workers<=1 runs the
// whole batch on a single generator, which is the reproducibility
// contract: same model, same seed, same result. Workers>0 splits the
// batch and only guarantees determinism for a fixed worker count.
type Simulator struct {
	Model   *Model
	Workers int
	Seed    uint64
	Logger  *zap.Logger
}

// Run plays the requested number of base spins and returns the raw
// tallies. Cancellation is checked between worker startup and merge, not
// inside the hot loop.
func (s *Simulator) Run(ctx context.Context, spins int64) (Stats, error) {
	if s.Model == nil {
		return Stats{}, errors.New("slot: simulator has no model")
	}
	if spins <= 0 {
		return Stats{}, errors.New("slot: spin count must be positive")
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if int64(workers) > spins {
		workers = int(spins)
	}

	if workers <= 1 {
		var st Stats
		s.runChunk(NewRand(s.Seed), spins, &st, nil)
		return st, nil
	}

	var done atomic.Int64
	stopProgress := s.startProgress(log, spins, &done)
	defer stopProgress()

	parts := make([]Stats, workers)
	chunk := spins / int64(workers)
	rest := spins % int64(workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		n := chunk
		if int64(i) < rest {
			n++
		}
		wg.Add(1)
		go func(i int, n int64) {
			defer wg.Done()
			s.runChunk(NewRand(s.Seed+uint64(i)*_seedStride), n, &parts[i], &done)
		}(i, n)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	var st Stats
	for i := range parts {
		st.Merge(&parts[i])
	}
	return st, nil
}

// runChunk plays n spins on one generator into a worker-local Stats.
func (s *Simulator) runChunk(rng *rand.Rand, n int64, out *Stats, done *atomic.Int64) {
	m := s.Model
	eval := NewEvaluator(m)
	feat := NewFeatureEngine(m)
	window := m.NewOutcome()

	var local Stats
	var sinceReport int64
	for i := int64(0); i < n; i++ {
		m.SpinInto(window, rng)
		base := eval.Total(window)
		var fr *FeatureResult
		if awarded := m.Trigger(m.CountScatters(window)); awarded > 0 {
			r := feat.Run(rng, awarded)
			fr = &r
		}
		local.Ingest(base, fr)

		if done != nil {
			sinceReport++
			if sinceReport == _progressStep {
				done.Add(sinceReport)
				sinceReport = 0
			}
		}
	}
	if done != nil && sinceReport > 0 {
		done.Add(sinceReport)
	}
	*out = local
}

func (s *Simulator) startProgress(log *zap.Logger, total int64, done *atomic.Int64) func() {
	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(_progressInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				n := done.Load()
				log.Info("simulation progress",
					zap.Int64("spins", n),
					zap.Int64("total", total),
					zap.Float64("pct", float64(n)/float64(total)*100))
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
