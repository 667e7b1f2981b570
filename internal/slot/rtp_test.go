package slot

import (
	"fmt"
	"strings"
	"testing"
)

// Reference 5x3 ways game, mirrored by configs/game.yaml.
func newReferenceModel(t testing.TB) *Model {
	t.Helper()
	m, err := NewModel(Model{
		Reels: 5,
		Rows:  3,
		Symbols: []Symbol{
			{ID: "H1", Tier: TierHigh, Pays: map[int]float64{3: 2.00, 4: 8.00, 5: 40.00}},
			{ID: "H2", Tier: TierHigh, Pays: map[int]float64{3: 1.50, 4: 5.00, 5: 25.00}},
			{ID: "H3", Tier: TierHigh, Pays: map[int]float64{3: 1.00, 4: 4.00, 5: 20.00}},
			{ID: "H4", Tier: TierHigh, Pays: map[int]float64{3: 0.80, 4: 3.00, 5: 15.00}},
			{ID: "H5", Tier: TierHigh, Pays: map[int]float64{3: 0.60, 4: 2.50, 5: 10.00}},
			{ID: "L1", Tier: TierLow, Pays: map[int]float64{3: 0.40, 4: 1.50, 5: 5.00}},
			{ID: "L2", Tier: TierLow, Pays: map[int]float64{3: 0.30, 4: 1.00, 5: 4.00}},
			{ID: "L3", Tier: TierLow, Pays: map[int]float64{3: 0.25, 4: 0.80, 5: 3.00}},
			{ID: "L4", Tier: TierLow, Pays: map[int]float64{3: 0.20, 4: 0.60, 5: 2.00}},
			{ID: "WD", Tier: TierWild},
			{ID: "SC", Tier: TierScatter},
		},
		Strips: []ReelStrip{
			{"H1", "L1", "L2", "H2", "L3", "L4", "L1", "H3",
				"L2", "L3", "L4", "H4", "L1", "L2", "L3", "SC",
				"L4", "H1", "L1", "L2", "WD", "L3", "L4", "H2",
				"L1", "L2", "H5", "L3", "L4", "L1", "L2", "L3"},
			{"L1", "H2", "L2", "L3", "L4", "H1", "L1", "L2",
				"H3", "L3", "L4", "L1", "SC", "L2", "L3", "H4",
				"L4", "L1", "L2", "WD", "L3", "H5", "L4", "L1",
				"L2", "L3", "H2", "L4", "L1", "L2", "L3", "L4"},
			{"H1", "L2", "L3", "L4", "L1", "H3", "L2", "SC",
				"L3", "L4", "H2", "L1", "L2", "L3", "WD", "L4",
				"H4", "L1", "L2", "L3", "L4", "H5", "L1", "L2",
				"L3", "L4", "L1", "H1", "L2", "L3", "L4", "L1"},
			{"L1", "L2", "H2", "L3", "L4", "L1", "H1", "L2",
				"L3", "H4", "L4", "L1", "L2", "SC", "L3", "L4",
				"H3", "L1", "L2", "L3", "WD", "L4", "H5", "L1",
				"L2", "L3", "L4", "L1", "L2", "H2", "L3", "L4"},
			{"L2", "L3", "H1", "L4", "L1", "L2", "H3", "L3",
				"L4", "L1", "H2", "L2", "L3", "L4", "SC", "L1",
				"H4", "L2", "L3", "L4", "H5", "L1", "WD", "L2",
				"L3", "L4", "L1", "L2", "L3", "H1", "L4", "L1"},
		},
		Wild:               "WD",
		Scatter:            "SC",
		FreeSpinTrigger:    map[int]int{3: 10, 4: 15, 5: 25},
		FreeSpinMultiplier: 3,
		Retrigger:          true,
	})
	if err != nil {
		t.Fatalf("reference model: %v", err)
	}
	return m
}

// TestReferenceGameRTP plays one million spins on the reference game and
// reports the measured figures. The bounds are deliberately wide; exact
// baselines are regenerated from this report after any config change,
// not hardcoded.
func TestReferenceGameRTP(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	m := newReferenceModel(t)
	sim := &Simulator{Model: m, Workers: 1, Seed: 42}
	st, err := sim.Run(t.Context(), 1_000_000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	res := st.Finalize(FinalizeParams{
		TargetRTP: 96.5,
		Tolerance: 0.5,
		Jurisdictions: map[string]float64{
			"UK": 80, "Malta": 85, "Gibraltar": 80, "NewJersey": 83,
		},
	})

	var b strings.Builder
	b.WriteString("\n==== reference game, 1,000,000 spins ====\n")
	fmt.Fprintf(&b, "rtp        : %.4f%% (base %.4f%% + feature %.4f%%)\n", res.MeasuredRTP, res.BaseRTP, res.FeatureRTP)
	fmt.Fprintf(&b, "ci99       : [%.4f, %.4f]\n", res.Confidence99[0], res.Confidence99[1])
	fmt.Fprintf(&b, "hit freq   : %.4f%%\n", res.HitFrequency)
	fmt.Fprintf(&b, "volatility : %.4f   max win: %.2fx\n", res.Volatility, res.MaxWin)
	fmt.Fprintf(&b, "feature    : %d triggers, %d free spins, %d retriggers, %d cap hits\n",
		res.Feature.Triggers, res.Feature.FreeSpinsPlayed, res.Feature.Retriggers, res.Feature.CapHits)
	for _, bucket := range res.Distribution {
		fmt.Fprintf(&b, "  %-10s %8d  %7.4f%%\n", bucket.Bucket, bucket.Count, bucket.Percent)
	}
	fmt.Fprintf(&b, "verdict    : %s\n", res.Summary.Verdict)
	t.Log(b.String())

	if !res.Valid {
		t.Fatal("batch invalid")
	}
	if res.HitFrequency < 15 || res.HitFrequency > 60 {
		t.Fatalf("hit frequency %v%% outside sanity band", res.HitFrequency)
	}
	if res.MeasuredRTP < 50 || res.MeasuredRTP > 400 {
		t.Fatalf("rtp %v%% outside sanity band", res.MeasuredRTP)
	}
	if res.Feature.Triggers == 0 {
		t.Fatal("feature never triggered over a million spins")
	}
	if res.MaxWin < 20 {
		t.Fatalf("max win %vx implausibly small", res.MaxWin)
	}
}

func BenchmarkBaseSpin(b *testing.B) {
	m := newReferenceModel(b)
	rng := NewRand(1)
	eval := NewEvaluator(m)
	o := m.NewOutcome()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.SpinInto(o, rng)
		eval.Total(o)
	}
}
