package slot

// Win buckets, in multiples of the unit bet. The first bucket is exact
// zero, the rest are half-open ranges.
var (
	bucketLabels = [...]string{"0x", "0-1x", "1-2x", "2-5x", "5-20x", "20-100x", "100-1000x", "1000x+"}
	bucketEdges  = [...]float64{1, 2, 5, 20, 100, 1000}
)

// NumBuckets is the number of win-distribution buckets.
const NumBuckets = len(bucketLabels)

func bucketIndex(win float64) int {
	if win == 0 {
		return 0
	}
	for i, edge := range bucketEdges {
		if win < edge {
			return i + 1
		}
	}
	return NumBuckets - 1
}

// Stats accumulates raw batch counters at unit bet. Fields are plain
// tallies so worker-local copies merge by addition; percentages and
// ratios are computed only at Finalize time.
type Stats struct {
	Spins      int64
	Wins       int64
	TotalWon   float64
	BaseWon    float64
	FeatureWon float64
	MaxWin     float64

	Buckets [NumBuckets]int64

	Triggers  int64
	FreeSpins int64
	Retrigs   int64
	CapHits   int64
}

// Ingest records one completed base spin. fr is nil when the spin did
// not trigger the feature; a triggered spin's win includes the whole
// cascade.
func (s *Stats) Ingest(base float64, fr *FeatureResult) {
	total := base
	s.Spins++
	s.BaseWon += base
	if fr != nil {
		total += fr.Win
		s.FeatureWon += fr.Win
		s.Triggers++
		s.FreeSpins += int64(fr.Spins)
		s.Retrigs += int64(fr.Retriggers)
		if fr.Capped {
			s.CapHits++
		}
	}
	s.TotalWon += total
	if total > 0 {
		s.Wins++
	}
	if total > s.MaxWin {
		s.MaxWin = total
	}
	s.Buckets[bucketIndex(total)]++
}

// Merge folds another worker's tallies into s.
func (s *Stats) Merge(o *Stats) {
	s.Spins += o.Spins
	s.Wins += o.Wins
	s.TotalWon += o.TotalWon
	s.BaseWon += o.BaseWon
	s.FeatureWon += o.FeatureWon
	if o.MaxWin > s.MaxWin {
		s.MaxWin = o.MaxWin
	}
	for i := range s.Buckets {
		s.Buckets[i] += o.Buckets[i]
	}
	s.Triggers += o.Triggers
	s.FreeSpins += o.FreeSpins
	s.Retrigs += o.Retrigs
	s.CapHits += o.CapHits
}

// RTP is the running return-to-player percentage. Bets are one unit, so
// the wagered total equals the spin count.
func (s *Stats) RTP() float64 {
	if s.Spins == 0 {
		return 0
	}
	return s.TotalWon / float64(s.Spins) * 100
}
