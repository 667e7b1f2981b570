package slot

import (
	"math"
	"testing"
)

func TestBucketBoundaries(t *testing.T) {
	cases := map[float64]int{
		0:       0,
		0.01:    1,
		0.99:    1,
		1:       2,
		1.99:    2,
		2:       3,
		4.99:    3,
		5:       4,
		19.99:   4,
		20:      5,
		99.99:   5,
		100:     6,
		999.99:  6,
		1000:    7,
		12345.6: 7,
	}
	for win, want := range cases {
		if got := bucketIndex(win); got != want {
			t.Fatalf("bucketIndex(%v) = %d, want %d (%s)", win, got, want, bucketLabels[want])
		}
	}
}

func TestIngestAndMerge(t *testing.T) {
	var a, b Stats
	a.Ingest(0, nil)
	a.Ingest(1.5, nil)
	b.Ingest(0.5, &FeatureResult{Win: 30, Spins: 12, Retriggers: 1})
	b.Ingest(0, &FeatureResult{Win: 0, Spins: 10, Capped: true})

	a.Merge(&b)
	if a.Spins != 4 || a.Wins != 2 {
		t.Fatalf("spins=%d wins=%d", a.Spins, a.Wins)
	}
	if !almost(a.TotalWon, 32) || !almost(a.BaseWon, 2) || !almost(a.FeatureWon, 30) {
		t.Fatalf("won totals = %v/%v/%v", a.TotalWon, a.BaseWon, a.FeatureWon)
	}
	if a.Triggers != 2 || a.FreeSpins != 22 || a.Retrigs != 1 || a.CapHits != 1 {
		t.Fatalf("feature tallies = %+v", a)
	}
	if !almost(a.MaxWin, 30.5) {
		t.Fatalf("max win = %v", a.MaxWin)
	}
	// 0, 0, 1.5 and 30.5 land in their buckets
	if a.Buckets[0] != 2 || a.Buckets[2] != 1 || a.Buckets[5] != 1 {
		t.Fatalf("buckets = %v", a.Buckets)
	}
}

func TestFinalizeZeroSpinsIsInvalid(t *testing.T) {
	var s Stats
	res := s.Finalize(FinalizeParams{TargetRTP: 96.5, Tolerance: 0.5})
	if res.Valid {
		t.Fatal("zero-spin batch reported valid")
	}
	if res.Summary.Verdict != "FAIL" {
		t.Fatalf("verdict = %q", res.Summary.Verdict)
	}
}

func TestFinalizeDerivedFigures(t *testing.T) {
	m := newWaysModel(t)
	m.FreeSpinTrigger = map[int]int{3: 10, 4: 15, 5: 25}
	m.FreeSpinMultiplier = 3
	m.Retrigger = true

	sim := &Simulator{Model: m, Workers: 1, Seed: 42}
	st, err := sim.Run(t.Context(), 20000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	res := st.Finalize(FinalizeParams{
		TargetRTP:     96.5,
		Tolerance:     0.5,
		Jurisdictions: map[string]float64{"Floor1": 1, "Floor99999": 99999},
	})

	if !res.Valid {
		t.Fatal("batch invalid")
	}
	if res.TotalWagered != res.TotalSpins {
		t.Fatalf("wagered %d != spins %d at unit bet", res.TotalWagered, res.TotalSpins)
	}
	if lo, hi := res.Confidence99[0], res.Confidence99[1]; res.MeasuredRTP < lo || res.MeasuredRTP > hi {
		t.Fatalf("rtp %v outside its own interval [%v,%v]", res.MeasuredRTP, lo, hi)
	}
	sum := 0.0
	var spins int64
	for _, b := range res.Distribution {
		sum += b.Percent
		spins += b.Count
	}
	if math.Abs(sum-100) > 0.05 {
		t.Fatalf("bucket percentages sum to %v", sum)
	}
	if spins != res.TotalSpins {
		t.Fatalf("bucket counts sum to %d of %d spins", spins, res.TotalSpins)
	}
	if !res.Compliance["Floor1"] || res.Compliance["Floor99999"] {
		t.Fatalf("compliance = %v", res.Compliance)
	}
	if !almost(res.BaseRTP+res.FeatureRTP, res.MeasuredRTP) {
		// rounding keeps them within a hundredth
		if math.Abs(res.BaseRTP+res.FeatureRTP-res.MeasuredRTP) > 0.01 {
			t.Fatalf("base %v + feature %v != total %v", res.BaseRTP, res.FeatureRTP, res.MeasuredRTP)
		}
	}
}

func TestConfidenceIntervalNarrowsWithSpins(t *testing.T) {
	m := newWaysModel(t)
	width := func(spins int64) float64 {
		sim := &Simulator{Model: m, Workers: 1, Seed: 7}
		st, err := sim.Run(t.Context(), spins)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		res := st.Finalize(FinalizeParams{TargetRTP: 96.5, Tolerance: 0.5})
		return res.Confidence99[1] - res.Confidence99[0]
	}
	small, large := width(10000), width(1000000)
	if large >= small {
		t.Fatalf("interval did not narrow: %v at 10k vs %v at 1M", small, large)
	}
}

func TestRunDeterministicSingleWorker(t *testing.T) {
	m := newWaysModel(t)
	m.FreeSpinTrigger = map[int]int{3: 4}
	m.FreeSpinMultiplier = 2
	m.Retrigger = true

	run := func() Stats {
		sim := &Simulator{Model: m, Workers: 1, Seed: 1234}
		st, err := sim.Run(t.Context(), 50000)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return st
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("replays diverged:\n%+v\n%+v", a, b)
	}
}

func TestRunSplitsAcrossWorkers(t *testing.T) {
	m := newWaysModel(t)
	sim := &Simulator{Model: m, Workers: 4, Seed: 5}
	st, err := sim.Run(t.Context(), 100001)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Spins != 100001 {
		t.Fatalf("merged spins = %d", st.Spins)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	if _, err := (&Simulator{}).Run(t.Context(), 10); err == nil {
		t.Fatal("nil model accepted")
	}
	m := newWaysModel(t)
	if _, err := (&Simulator{Model: m}).Run(t.Context(), 0); err == nil {
		t.Fatal("zero spins accepted")
	}
}
