// Package conf loads and validates the YAML run configuration and turns
// the game section into an engine model.
package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"slotsim/internal/slot"
)

// Bootstrap is the full run configuration file.
type Bootstrap struct {
	Game          Game               `yaml:"game"`
	Simulation    Simulation         `yaml:"simulation"`
	Jurisdictions map[string]float64 `yaml:"jurisdictions"`
	Optimizer     Optimizer          `yaml:"optimizer"`
	Behavior      Behavior           `yaml:"behavior"`
}

// Game describes the reels, symbols and feature rules.
type Game struct {
	Reels      int              `yaml:"reels"`
	Rows       int              `yaml:"rows"`
	Wild       string           `yaml:"wild"`
	Scatter    string           `yaml:"scatter"`
	Symbols    []SymbolDef      `yaml:"symbols"`
	FreeSpins  FreeSpins        `yaml:"free_spins"`
	ReelStrips []slot.ReelStrip `yaml:"reel_strips"`
}

type SymbolDef struct {
	ID   string          `yaml:"id"`
	Tier string          `yaml:"tier"`
	Pays map[int]float64 `yaml:"pays"`
}

type FreeSpins struct {
	Trigger       map[int]int `yaml:"trigger"`
	Multiplier    float64     `yaml:"multiplier"`
	Retrigger     bool        `yaml:"retrigger"`
	MaxPerCascade int         `yaml:"max_per_cascade"`
}

// Simulation drives a plain Monte Carlo batch.
type Simulation struct {
	Spins     int64   `yaml:"spins"`
	Seed      uint64  `yaml:"seed"`
	Workers   int     `yaml:"workers"`
	TargetRTP float64 `yaml:"target_rtp"`
	Tolerance float64 `yaml:"tolerance"`
}

// Optimizer drives the RTP tuning loop.
type Optimizer struct {
	TargetRTP         float64 `yaml:"target_rtp"`
	Tolerance         float64 `yaml:"tolerance"`
	MaxIterations     int     `yaml:"max_iterations"`
	SpinsPerIteration int64   `yaml:"spins_per_iteration"`
}

// Behavior drives the player-session pool.
type Behavior struct {
	Volatility         string  `yaml:"volatility"`
	HitFrequency       float64 `yaml:"hit_frequency"`
	BonusTriggerRate   float64 `yaml:"bonus_trigger_rate"`
	BonusAvgMultiplier float64 `yaml:"bonus_avg_multiplier"`
	MaxWin             float64 `yaml:"max_win"`
	Budget             float64 `yaml:"budget"`
	Bet                float64 `yaml:"bet"`
	Sessions           int     `yaml:"sessions"`
}

// Load reads and validates a configuration file. Validation failures
// come back as a single *slot.ConfigError listing every issue.
func Load(path string) (*Bootstrap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("conf: read %s: %w", path, err)
	}
	var b Bootstrap
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("conf: parse %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the run sections. Game-section semantics are validated
// by Model, which compiles the engine's own view of the config.
func (b *Bootstrap) Validate() error {
	var issues []string
	if b.Simulation.Spins <= 0 {
		issues = append(issues, "simulation.spins must be positive")
	}
	if b.Simulation.TargetRTP <= 0 {
		issues = append(issues, "simulation.target_rtp must be positive")
	}
	if b.Simulation.Tolerance <= 0 {
		issues = append(issues, "simulation.tolerance must be positive")
	}
	if b.Simulation.Workers < 0 {
		issues = append(issues, "simulation.workers must not be negative")
	}
	for name, floor := range b.Jurisdictions {
		if floor <= 0 || floor > 100 {
			issues = append(issues, fmt.Sprintf("jurisdictions.%s floor %v outside (0,100]", name, floor))
		}
	}
	if o := b.Optimizer; o.MaxIterations > 0 || o.SpinsPerIteration > 0 || o.TargetRTP > 0 {
		if o.TargetRTP <= 0 || o.Tolerance <= 0 || o.MaxIterations <= 0 || o.SpinsPerIteration <= 0 {
			issues = append(issues, "optimizer section must set target_rtp, tolerance, max_iterations and spins_per_iteration")
		}
	}
	if len(issues) > 0 {
		return &slot.ConfigError{Issues: issues}
	}
	return nil
}

// Model compiles the game section into an engine model.
func (g *Game) Model() (*slot.Model, error) {
	symbols := make([]slot.Symbol, len(g.Symbols))
	for i, s := range g.Symbols {
		symbols[i] = slot.Symbol{
			ID:   s.ID,
			Tier: slot.Tier(s.Tier),
			Pays: s.Pays,
		}
	}
	return slot.NewModel(slot.Model{
		Reels:              g.Reels,
		Rows:               g.Rows,
		Strips:             g.ReelStrips,
		Symbols:            symbols,
		Wild:               g.Wild,
		Scatter:            g.Scatter,
		FreeSpinTrigger:    g.FreeSpins.Trigger,
		FreeSpinMultiplier: g.FreeSpins.Multiplier,
		Retrigger:          g.FreeSpins.Retrigger,
		MaxFreeSpins:       g.FreeSpins.MaxPerCascade,
	})
}
