package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/lethe/internal/builtin"
	"github.com/lazypower/lethe/internal/system"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a short, fast, deterministic degradation demo",
	Long:  "Runs 20 loop iterations with aggressive decay and a fixed seed, so the same collapse plays out every time.",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	sys := system.New(system.Options{
		DecayInterval:     500 * time.Millisecond,
		DecayProbability:  0.8,
		LoopInterval:      500 * time.Millisecond,
		NarrativeInterval: 2 * time.Second,
		Seed:              42,
	})
	if err := builtin.Register(sys.Registry(), 42); err != nil {
		return err
	}
	sys.Initialize()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys.Run(ctx, 20)
	return nil
}
