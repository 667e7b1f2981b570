package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"slotsim/internal/behavior"
	"slotsim/internal/conf"
	"slotsim/internal/optimize"
	"slotsim/internal/slot"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Version is the version of the compiled software.
	Version string

	flagconf string
	flagmode string
	flagout  string
	spins    int64
	seed     uint64
	workers  int
	debug    bool
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/game.yaml", "config path, eg: -conf game.yaml")
	flag.StringVar(&flagmode, "mode", "simulate", "simulate | optimize | sessions")
	flag.StringVar(&flagout, "output", "", "write the JSON report to a file instead of stdout")
	flag.Int64Var(&spins, "spins", 0, "override simulation.spins")
	flag.Uint64Var(&seed, "seed", 0, "override simulation.seed")
	flag.IntVar(&workers, "workers", -1, "override simulation.workers, 0 = one per CPU")
	flag.BoolVar(&debug, "debug", false, "verbose logging")
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build(zap.Fields(zap.String("app", "slotsim"), zap.String("version", Version)))
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := conf.Load(flagconf)
	if err != nil {
		return err
	}
	if spins > 0 {
		b.Simulation.Spins = spins
	}
	if seed > 0 {
		b.Simulation.Seed = seed
	}
	if workers >= 0 {
		b.Simulation.Workers = workers
	}

	model, err := b.Game.Model()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		zap.String("path", flagconf),
		zap.String("mode", flagmode),
		zap.Int("reels", model.Reels),
		zap.Int("rows", model.Rows))

	var report any
	switch flagmode {
	case "simulate":
		report, err = simulate(ctx, b, model, logger)
	case "optimize":
		report, err = tune(ctx, b, model, logger)
	case "sessions":
		report, err = sessions(ctx, b, logger)
	default:
		return fmt.Errorf("unknown mode %q", flagmode)
	}
	if err != nil {
		return err
	}
	return emit(report)
}

func simulate(ctx context.Context, b *conf.Bootstrap, model *slot.Model, logger *zap.Logger) (any, error) {
	sim := &slot.Simulator{
		Model:   model,
		Workers: b.Simulation.Workers,
		Seed:    b.Simulation.Seed,
		Logger:  logger,
	}
	st, err := sim.Run(ctx, b.Simulation.Spins)
	if err != nil {
		return nil, err
	}
	res := st.Finalize(slot.FinalizeParams{
		TargetRTP:     b.Simulation.TargetRTP,
		Tolerance:     b.Simulation.Tolerance,
		Jurisdictions: b.Jurisdictions,
	})
	logger.Info("simulation finished",
		zap.Int64("spins", res.TotalSpins),
		zap.Float64("rtp", res.MeasuredRTP),
		zap.Float64("hit_freq", res.HitFrequency),
		zap.String("verdict", res.Summary.Verdict))
	return res, nil
}

func tune(ctx context.Context, b *conf.Bootstrap, model *slot.Model, logger *zap.Logger) (any, error) {
	return optimize.Optimize(ctx, model, optimize.Config{
		TargetRTP:         b.Optimizer.TargetRTP,
		Tolerance:         b.Optimizer.Tolerance,
		MaxIterations:     b.Optimizer.MaxIterations,
		SpinsPerIteration: b.Optimizer.SpinsPerIteration,
		Workers:           b.Simulation.Workers,
		Seed:              b.Simulation.Seed,
		Logger:            logger,
	})
}

func sessions(ctx context.Context, b *conf.Bootstrap, logger *zap.Logger) (any, error) {
	return behavior.Simulate(ctx, behavior.Params{
		RTP:                b.Simulation.TargetRTP,
		Volatility:         b.Behavior.Volatility,
		HitFrequency:       b.Behavior.HitFrequency,
		BonusTriggerRate:   b.Behavior.BonusTriggerRate,
		BonusAvgMultiplier: b.Behavior.BonusAvgMultiplier,
		MaxWin:             b.Behavior.MaxWin,
		Budget:             b.Behavior.Budget,
		Bet:                b.Behavior.Bet,
		Sessions:           b.Behavior.Sessions,
		Workers:            b.Simulation.Workers,
		Seed:               b.Simulation.Seed,
		Logger:             logger,
	})
}

func emit(report any) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if flagout == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(flagout, append(out, '\n'), 0o644)
}
