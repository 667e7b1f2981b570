package slot

import "testing"

func TestFeatureMultiplierAppliesToEveryFreeSpin(t *testing.T) {
	// single-row reels showing only A make every free spin pay exactly
	// the three-of-a-kind value
	m, err := NewModel(Model{
		Reels: 3,
		Rows:  1,
		Symbols: []Symbol{
			{ID: "A", Tier: TierHigh, Pays: map[int]float64{3: 2}},
		},
		Strips:             []ReelStrip{{"A"}, {"A"}, {"A"}},
		FreeSpinMultiplier: 3,
	})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	res := NewFeatureEngine(m).Run(NewRand(1), 4)
	if res.Spins != 4 || res.Retriggers != 0 || res.Capped {
		t.Fatalf("result = %+v, want 4 plain spins", res)
	}
	if !almost(res.Win, 4*2*3) {
		t.Fatalf("win = %v, want 24", res.Win)
	}
}

func TestFeatureRetriggerAddsUntilCap(t *testing.T) {
	// all-scatter reels retrigger on every free spin, so the cascade can
	// only end at the cap
	m, err := NewModel(Model{
		Reels: 3,
		Rows:  1,
		Symbols: []Symbol{
			{ID: "A", Tier: TierHigh, Pays: map[int]float64{3: 2}},
			{ID: "S", Tier: TierScatter},
		},
		Strips:          []ReelStrip{{"S"}, {"S"}, {"S"}},
		Scatter:         "S",
		FreeSpinTrigger: map[int]int{3: 5},
		Retrigger:       true,
		MaxFreeSpins:    50,
	})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	res := NewFeatureEngine(m).Run(NewRand(1), 5)
	if !res.Capped {
		t.Fatal("endless retrigger cascade did not hit the cap")
	}
	if res.Spins != 50 {
		t.Fatalf("spins = %d, want the cap of 50", res.Spins)
	}
	if res.Retriggers != 50 {
		t.Fatalf("retriggers = %d, want one per spin", res.Retriggers)
	}
	if res.Win != 0 {
		t.Fatalf("scatter-only windows paid %v", res.Win)
	}
}

func TestFeatureRetriggerDisabled(t *testing.T) {
	m, err := NewModel(Model{
		Reels: 3,
		Rows:  1,
		Symbols: []Symbol{
			{ID: "A", Tier: TierHigh, Pays: map[int]float64{3: 2}},
			{ID: "S", Tier: TierScatter},
		},
		Strips:          []ReelStrip{{"S"}, {"S"}, {"S"}},
		Scatter:         "S",
		FreeSpinTrigger: map[int]int{3: 5},
		Retrigger:       false,
	})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	res := NewFeatureEngine(m).Run(NewRand(1), 5)
	if res.Spins != 5 || res.Retriggers != 0 || res.Capped {
		t.Fatalf("result = %+v, want exactly the awarded spins", res)
	}
}

func TestTriggerTableLookup(t *testing.T) {
	m := newWaysModel(t)
	m.FreeSpinTrigger = map[int]int{3: 10, 4: 15, 5: 25}
	for scatters, want := range map[int]int{0: 0, 1: 0, 2: 0, 3: 10, 4: 15, 5: 25} {
		if got := m.Trigger(scatters); got != want {
			t.Fatalf("Trigger(%d) = %d, want %d", scatters, got, want)
		}
	}
}
