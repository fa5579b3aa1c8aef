package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/lethe/internal/builtin"
	"github.com/lazypower/lethe/internal/config"
	"github.com/lazypower/lethe/internal/store"
	"github.com/lazypower/lethe/internal/system"
	"github.com/spf13/cobra"
)

var (
	flagIterations        int
	flagDecayInterval     float64
	flagDecayProbability  float64
	flagLoopInterval      float64
	flagNarrativeInterval float64
	flagSeed              int64
	flagJournal           bool
	flagConfig            string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the degradation loop in the foreground",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVarP(&flagIterations, "iterations", "n", 0, "stop after N iterations (0 = run until interrupted)")
	runCmd.Flags().Float64Var(&flagDecayInterval, "decay-interval", 0, "seconds between decay opportunities")
	runCmd.Flags().Float64Var(&flagDecayProbability, "decay-prob", 0, "probability of decay per opportunity")
	runCmd.Flags().Float64Var(&flagLoopInterval, "loop-interval", 0, "seconds between loop iterations")
	runCmd.Flags().Float64Var(&flagNarrativeInterval, "narrative-interval", 0, "seconds between narrative updates")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed (0 = time-based)")
	runCmd.Flags().BoolVar(&flagJournal, "journal", true, "record events to the journal database")
	runCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.lethe/lethe.toml)")
}

func runRun(cmd *cobra.Command, args []string) error {
	sys, journal, err := buildSystem()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys.Run(ctx, flagIterations)
	return nil
}

// buildSystem assembles a fully registered, initialized system from the
// config file with flag overrides applied on top.
func buildSystem() (*system.System, *store.Journal, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	if flagDecayInterval > 0 {
		cfg.Decay.IntervalSeconds = flagDecayInterval
	}
	if flagDecayProbability > 0 {
		cfg.Decay.Probability = flagDecayProbability
	}
	if flagLoopInterval > 0 {
		cfg.Loop.IntervalSeconds = flagLoopInterval
	}
	if flagNarrativeInterval > 0 {
		cfg.Loop.NarrativeSeconds = flagNarrativeInterval
	}
	if flagSeed != 0 {
		cfg.Decay.Seed = flagSeed
	}
	if !flagJournal {
		cfg.Journal.Enabled = false
	}

	seed := cfg.Decay.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var journal *store.Journal
	if cfg.Journal.Enabled {
		path := cfg.Journal.Path
		if path == "" {
			path, err = store.DefaultPath()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve journal path: %w", err)
			}
		}
		journal, err = store.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
	}

	sys := system.New(system.Options{
		DecayInterval:     secs(cfg.Decay.IntervalSeconds),
		DecayProbability:  cfg.Decay.Probability,
		LoopInterval:      secs(cfg.Loop.IntervalSeconds),
		NarrativeInterval: secs(cfg.Loop.NarrativeSeconds),
		Seed:              seed,
		Journal:           journal,
	})

	if err := builtin.Register(sys.Registry(), seed); err != nil {
		if journal != nil {
			journal.Close()
		}
		return nil, nil, fmt.Errorf("register builtins: %w", err)
	}
	sys.Initialize()
	return sys, journal, nil
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
