package behavior

import (
	"fmt"
	"math"
	"sort"
)

// Report is the aggregated player-experience view of a session pool.
type Report struct {
	SessionsSimulated int               `json:"sessions_simulated"`
	Sessions          SessionMetrics    `json:"session_metrics"`
	Financial         FinancialMetrics  `json:"financial_metrics"`
	Bonus             BonusMetrics      `json:"bonus_metrics"`
	Experience        ExperienceMetrics `json:"experience_metrics"`
	BigWins           BigWinMetrics     `json:"big_win_metrics"`
	Scores            Scores            `json:"scores"`
	Recommendations   []string          `json:"recommendations"`
}

type SessionMetrics struct {
	MedianSpins int     `json:"median_spins"`
	MeanSpins   float64 `json:"mean_spins"`
	P10Spins    int     `json:"p10_spins"`
	P90Spins    int     `json:"p90_spins"`
}

type FinancialMetrics struct {
	BustRate           float64 `json:"bust_rate"`
	AvgFinalBalance    float64 `json:"avg_final_balance"`
	MedianFinalBalance float64 `json:"median_final_balance"`
	PctProfitable      float64 `json:"pct_sessions_profitable"`
}

type BonusMetrics struct {
	AvgPerSession float64 `json:"avg_bonuses_per_session"`
	PctWithBonus  float64 `json:"pct_sessions_with_bonus"`
	PctZeroBonus  float64 `json:"pct_sessions_zero_bonus"`
}

type ExperienceMetrics struct {
	MedianDryStreak int     `json:"median_dry_streak"`
	P90DryStreak    int     `json:"p90_dry_streak"`
	MaxDryStreak    int     `json:"max_dry_streak_observed"`
	AvgNearMisses   float64 `json:"avg_near_misses_per_session"`
}

type BigWinMetrics struct {
	Pct100xPlus  float64 `json:"pct_sessions_with_100x_plus"`
	Pct1000xPlus float64 `json:"pct_sessions_with_1000x_plus"`
	BiggestWin   float64 `json:"biggest_win_observed"`
}

type Scores struct {
	Engagement int    `json:"engagement_score"`
	ChurnRisk  string `json:"churn_risk"`
}

// Churn risk levels, keyed off the median session length.
const (
	ChurnLow      = "LOW"
	ChurnMedium   = "MEDIUM"
	ChurnHigh     = "HIGH"
	ChurnCritical = "CRITICAL"
)

func churnRisk(medianSpins float64) string {
	switch {
	case medianSpins < 50:
		return ChurnCritical
	case medianSpins < 100:
		return ChurnHigh
	case medianSpins < 150:
		return ChurnMedium
	default:
		return ChurnLow
	}
}

// engagement blends session length, bonus exposure, dry-streak pain and
// big-win ceiling into a 0-100 score.
func engagement(medianSpins, meanBonuses, avgDry, biggestWin, maxWin float64) int {
	score := math.Min(medianSpins/200, 1)*30 +
		math.Min(meanBonuses, 3)/3*25 +
		math.Max(0, 1-avgDry/80)*25 +
		math.Min(biggestWin/maxWin, 1)*20
	n := int(score)
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// percentile interpolates linearly between order statistics.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func roundN(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func aggregate(p *Params, sessions []session) *Report {
	n := float64(len(sessions))
	spins := make([]float64, len(sessions))
	balances := make([]float64, len(sessions))
	dry := make([]float64, len(sessions))
	bonuses := make([]float64, len(sessions))
	biggest := make([]float64, len(sessions))
	near := make([]float64, len(sessions))
	busts, profitable, withBonus, over100, over1000 := 0, 0, 0, 0, 0
	for i, s := range sessions {
		spins[i] = float64(s.spins)
		balances[i] = s.finalBalance
		dry[i] = float64(s.maxDry)
		bonuses[i] = float64(s.bonuses)
		biggest[i] = roundN(s.biggestX, 1)
		near[i] = float64(s.nearMisses)
		if s.busted {
			busts++
		}
		if s.finalBalance > p.Budget {
			profitable++
		}
		if s.bonuses > 0 {
			withBonus++
		}
		if s.biggestX >= 100 {
			over100++
		}
		if s.biggestX >= 1000 {
			over1000++
		}
	}
	sort.Float64s(spins)
	sort.Float64s(balances)
	sort.Float64s(dry)

	medianSpins := percentile(spins, 50)
	avgDry := mean(dry)
	meanBonuses := mean(bonuses)
	maxBiggest := 0.0
	maxDry := 0.0
	for _, b := range biggest {
		if b > maxBiggest {
			maxBiggest = b
		}
	}
	for _, d := range dry {
		if d > maxDry {
			maxDry = d
		}
	}

	rep := &Report{
		SessionsSimulated: len(sessions),
		Sessions: SessionMetrics{
			MedianSpins: int(medianSpins),
			MeanSpins:   roundN(mean(spins), 1),
			P10Spins:    int(percentile(spins, 10)),
			P90Spins:    int(percentile(spins, 90)),
		},
		Financial: FinancialMetrics{
			BustRate:           roundN(float64(busts)/n*100, 1),
			AvgFinalBalance:    roundN(mean(balances), 2),
			MedianFinalBalance: roundN(percentile(balances, 50), 2),
			PctProfitable:      roundN(float64(profitable)/n*100, 1),
		},
		Bonus: BonusMetrics{
			AvgPerSession: roundN(meanBonuses, 2),
			PctWithBonus:  roundN(float64(withBonus)/n*100, 1),
			PctZeroBonus:  roundN(float64(len(sessions)-withBonus)/n*100, 1),
		},
		Experience: ExperienceMetrics{
			MedianDryStreak: int(percentile(dry, 50)),
			P90DryStreak:    int(percentile(dry, 90)),
			MaxDryStreak:    int(maxDry),
			AvgNearMisses:   roundN(mean(near), 1),
		},
		BigWins: BigWinMetrics{
			Pct100xPlus:  roundN(float64(over100)/n*100, 2),
			Pct1000xPlus: roundN(float64(over1000)/n*100, 3),
			BiggestWin:   roundN(maxBiggest, 1),
		},
	}
	rep.Scores = Scores{
		Engagement: engagement(medianSpins, meanBonuses, avgDry, maxBiggest, p.MaxWin),
		ChurnRisk:  churnRisk(medianSpins),
	}
	rep.Recommendations = recommendations(rep)
	return rep
}

// recommendations flags experience problems the headline math hides.
func recommendations(rep *Report) []string {
	var recs []string
	if rep.Scores.ChurnRisk == ChurnCritical || rep.Scores.ChurnRisk == ChurnHigh {
		recs = append(recs, fmt.Sprintf(
			"CRITICAL: median session only %d spins, players will churn fast; raise hit frequency or lower volatility",
			rep.Sessions.MedianSpins))
	}
	if rep.Bonus.PctZeroBonus > 60 {
		recs = append(recs, fmt.Sprintf(
			"WARNING: %.1f%% of sessions never trigger the bonus; consider a higher trigger rate",
			rep.Bonus.PctZeroBonus))
	}
	if rep.Experience.P90DryStreak > 50 {
		recs = append(recs, fmt.Sprintf(
			"WARNING: 10%% of sessions see dry streaks of %d+ spins; add guaranteed mini-wins or near-miss presentation",
			rep.Experience.P90DryStreak))
	}
	if rep.Financial.BustRate > 80 {
		recs = append(recs, fmt.Sprintf(
			"WARNING: %.1f%% bust rate, the game may feel punishing; consider dead-spin protection",
			rep.Financial.BustRate))
	}
	if rep.Scores.Engagement < 40 {
		recs = append(recs, "CRITICAL: engagement score below 40, this game will not retain players")
	} else if rep.Scores.Engagement >= 70 {
		recs = append(recs, "GOOD: engagement score above 70, the player experience should hold up")
	}
	return recs
}
