package slot

import "math"

// FinalizeParams carries the run targets a finished batch is judged
// against.
type FinalizeParams struct {
	TargetRTP float64
	Tolerance float64
	// Jurisdictions maps a jurisdiction name to its minimum RTP floor.
	Jurisdictions map[string]float64
}

// BucketShare is one named win-distribution bucket with its share of all
// spins. Buckets are emitted in ascending order.
type BucketShare struct {
	Bucket  string  `json:"bucket"`
	Count   int64   `json:"count"`
	Percent float64 `json:"pct"`
}

// FeatureStats summarizes the free-spin feature over a batch.
type FeatureStats struct {
	Triggers          int64   `json:"triggers"`
	TriggerFrequency  float64 `json:"trigger_frequency_pct"`
	FreeSpinsPlayed   int64   `json:"free_spins_played"`
	Retriggers        int64   `json:"retriggers"`
	CapHits           int64   `json:"cap_hits"`
	AvgSpinsToTrigger float64 `json:"avg_spins_between_triggers"`
	RTPContribution   float64 `json:"feature_rtp_contribution"`
}

// Summary is the one-look verdict of a batch.
type Summary struct {
	TargetRTP    float64 `json:"target_rtp"`
	MeasuredRTP  float64 `json:"measured_rtp"`
	TotalWagered float64 `json:"total_wagered"`
	TotalWon     float64 `json:"total_won"`
	TotalWins    int64   `json:"total_wins"`
	TotalLosses  int64   `json:"total_losses"`
	Verdict      string  `json:"verdict"`
}

// Result is the boundary report of one simulation batch. All monetary
// figures are multiples of the unit bet.
type Result struct {
	Valid        bool  `json:"valid"`
	TotalSpins   int64 `json:"total_spins"`
	TotalWagered int64 `json:"total_wagered"`

	MeasuredRTP     float64    `json:"measured_rtp"`
	Confidence99    [2]float64 `json:"rtp_confidence_interval_99"`
	Deviation       float64    `json:"rtp_deviation_from_target"`
	WithinTolerance bool       `json:"rtp_within_tolerance"`

	HitFrequency float64 `json:"hit_frequency_pct"`
	BaseRTP      float64 `json:"base_game_rtp"`
	FeatureRTP   float64 `json:"feature_rtp"`
	Volatility   float64 `json:"volatility_index"`
	MaxWin       float64 `json:"max_win_achieved"`

	Feature      FeatureStats    `json:"feature_stats"`
	Distribution []BucketShare   `json:"win_distribution"`
	Compliance   map[string]bool `json:"jurisdiction_compliance"`
	Summary      Summary         `json:"summary"`
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Finalize derives the boundary report from raw tallies. A batch of zero
// spins produces an invalid result rather than dividing by zero.
func (s *Stats) Finalize(p FinalizeParams) Result {
	res := Result{
		TotalSpins:   s.Spins,
		TotalWagered: s.Spins,
		Summary:      Summary{TargetRTP: p.TargetRTP, Verdict: "FAIL"},
	}
	if s.Spins == 0 {
		return res
	}
	res.Valid = true

	n := float64(s.Spins)
	rtp := s.RTP()
	res.MeasuredRTP = round4(rtp)
	res.BaseRTP = round4(s.BaseWon / n * 100)
	res.FeatureRTP = round4(s.FeatureWon / n * 100)
	res.HitFrequency = round4(float64(s.Wins) / n * 100)
	res.MaxWin = round4(s.MaxWin)

	// Normal-approximation interval on the RTP percentage. The variance
	// term goes negative once RTP exceeds 100, so it is floored at zero.
	half := 2.576 * math.Sqrt(math.Max(0, rtp*(100-rtp))/n)
	res.Confidence99 = [2]float64{round4(rtp - half), round4(rtp + half)}

	res.Deviation = round4(math.Abs(rtp - p.TargetRTP))
	res.WithinTolerance = res.Deviation <= p.Tolerance

	mean := s.TotalWon / n
	res.Volatility = round4(math.Sqrt((s.MaxWin - mean) * (s.MaxWin - mean) / n))

	res.Distribution = make([]BucketShare, NumBuckets)
	for i, label := range bucketLabels {
		res.Distribution[i] = BucketShare{
			Bucket:  label,
			Count:   s.Buckets[i],
			Percent: round4(float64(s.Buckets[i]) / n * 100),
		}
	}

	res.Feature = FeatureStats{
		Triggers:         s.Triggers,
		TriggerFrequency: round4(float64(s.Triggers) / n * 100),
		FreeSpinsPlayed:  s.FreeSpins,
		Retriggers:       s.Retrigs,
		CapHits:          s.CapHits,
		RTPContribution:  res.FeatureRTP,
	}
	if s.Triggers > 0 {
		res.Feature.AvgSpinsToTrigger = round4(n / float64(s.Triggers))
	}

	res.Compliance = make(map[string]bool, len(p.Jurisdictions))
	for name, floor := range p.Jurisdictions {
		res.Compliance[name] = rtp >= floor
	}

	res.Summary.MeasuredRTP = res.MeasuredRTP
	res.Summary.TotalWagered = n
	res.Summary.TotalWon = math.Round(s.TotalWon*100) / 100
	res.Summary.TotalWins = s.Wins
	res.Summary.TotalLosses = s.Spins - s.Wins
	if res.WithinTolerance {
		res.Summary.Verdict = "PASS"
	}
	return res
}
