// Package behavior simulates realistic player sessions against a game's
// headline statistics. It models the experience of playing, session
// length, busts, dry streaks, near misses, not the reel math, and scores
// how likely the game is to hold players.
package behavior

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"slotsim/internal/slot"
)

// Volatility tiers accepted by Params.Volatility.
const (
	VolLow      = "low"
	VolMedium   = "medium"
	VolHigh     = "high"
	VolVeryHigh = "very_high"
)

// volParams shapes the base-win distribution per volatility tier.
type volParams struct {
	baseMean float64
	baseStd  float64
}

var volTiers = map[string]volParams{
	VolLow:      {baseMean: 1.5, baseStd: 0.8},
	VolMedium:   {baseMean: 2.5, baseStd: 2.0},
	VolHigh:     {baseMean: 4.0, baseStd: 5.0},
	VolVeryHigh: {baseMean: 8.0, baseStd: 15.0},
}

const (
	// a win up to this fraction above the quit threshold nudges some
	// players to walk away with their profit
	_quitProfitFactor = 3.0
	_quitProfitP      = 0.10
	_fatigueSpins     = 500
	_fatigueP         = 0.05
	_lossNearMissP    = 0.15

	_seedStride = 1337
)

// Params describes the game under test and the simulated player pool.
type Params struct {
	RTP                float64
	Volatility         string
	HitFrequency       float64
	BonusTriggerRate   float64
	BonusAvgMultiplier float64
	MaxWin             float64
	Budget             float64
	Bet                float64
	Sessions           int

	Workers int
	Seed    uint64
	Logger  *zap.Logger
}

func (p *Params) validate() error {
	var issues []string
	if p.HitFrequency <= 0 || p.HitFrequency > 1 {
		issues = append(issues, fmt.Sprintf("hit frequency %v outside (0,1]", p.HitFrequency))
	}
	if p.BonusTriggerRate < 0 || p.BonusTriggerRate > p.HitFrequency {
		issues = append(issues, "bonus trigger rate must be within [0, hit frequency]")
	}
	if p.BonusAvgMultiplier <= 0 {
		issues = append(issues, "bonus average multiplier must be positive")
	}
	if p.MaxWin <= 0 {
		issues = append(issues, "max win must be positive")
	}
	if p.Budget <= 0 || p.Bet <= 0 {
		issues = append(issues, "budget and bet must be positive")
	}
	if p.Bet > p.Budget {
		issues = append(issues, "bet exceeds the session budget")
	}
	if p.Sessions <= 0 {
		issues = append(issues, "session count must be positive")
	}
	if len(issues) > 0 {
		return &slot.ConfigError{Issues: issues}
	}
	return nil
}

// session is the raw record of one simulated player.
type session struct {
	spins        int
	finalBalance float64
	wins         int
	bonuses      int
	maxDry       int
	biggestX     float64
	nearMisses   int
	busted       bool
}

// Simulate plays the configured number of sessions and aggregates them
// into a Report. Sessions are independent, so the pool is split across
// workers; results are deterministic for a fixed seed and worker count.
func Simulate(ctx context.Context, p Params) (*Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	vp, ok := volTiers[p.Volatility]
	if !ok {
		log.Warn("unknown volatility tier, using medium", zap.String("tier", p.Volatility))
		vp = volTiers[VolMedium]
	}

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > p.Sessions {
		workers = p.Sessions
	}

	parts := make([][]session, workers)
	chunk := p.Sessions / workers
	rest := p.Sessions % workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		n := chunk
		if i < rest {
			n++
		}
		wg.Add(1)
		go func(i, n int) {
			defer wg.Done()
			rng := slot.NewRand(p.Seed + uint64(i)*_seedStride)
			out := make([]session, 0, n)
			for j := 0; j < n; j++ {
				out = append(out, playSession(&p, vp, rng))
			}
			parts[i] = out
		}(i, n)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions := make([]session, 0, p.Sessions)
	for _, part := range parts {
		sessions = append(sessions, part...)
	}
	rep := aggregate(&p, sessions)
	log.Info("behavior simulation finished",
		zap.Int("sessions", rep.SessionsSimulated),
		zap.Int("median_spins", rep.Sessions.MedianSpins),
		zap.Float64("bust_rate", rep.Financial.BustRate),
		zap.Int("engagement", rep.Scores.Engagement),
		zap.String("churn_risk", rep.Scores.ChurnRisk))
	return rep, nil
}

// playSession runs one player until bust or a quit condition. The
// balance is kept in decimal so long sessions do not drift on cents.
func playSession(p *Params, vp volParams, rng *rand.Rand) session {
	var s session
	bet := decimal.NewFromFloat(p.Bet)
	balance := decimal.NewFromFloat(p.Budget)
	quitAbove := decimal.NewFromFloat(p.Budget * _quitProfitFactor)
	currentDry := 0

	for balance.GreaterThanOrEqual(bet) {
		balance = balance.Sub(bet)
		s.spins++

		if rng.Float64() < p.HitFrequency {
			var x float64
			if rng.Float64() < p.BonusTriggerRate/p.HitFrequency {
				x = math.Exp(math.Log(p.BonusAvgMultiplier) + rng.NormFloat64())
				x = math.Max(1, math.Min(p.MaxWin, x))
				s.bonuses++
			} else {
				x = math.Max(0.1, math.Exp(math.Log(vp.baseMean)+vp.baseStd*0.3*rng.NormFloat64()))
				x = math.Min(x, p.MaxWin)
				if x >= 0.5 && x < 2.0 {
					s.nearMisses++
				}
			}
			balance = balance.Add(decimal.NewFromFloat(p.Bet * x))
			if x > s.biggestX {
				s.biggestX = x
			}
			s.wins++
			if currentDry > s.maxDry {
				s.maxDry = currentDry
			}
			currentDry = 0
		} else {
			currentDry++
			// losing spin that looked close keeps the player hooked
			if rng.Float64() < _lossNearMissP {
				s.nearMisses++
			}
		}

		if balance.GreaterThanOrEqual(quitAbove) && rng.Float64() < _quitProfitP {
			break
		}
		if s.spins >= _fatigueSpins && rng.Float64() < _fatigueP {
			break
		}
	}
	s.busted = balance.LessThan(bet)
	s.finalBalance = balance.Round(2).InexactFloat64()
	return s
}
