package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/lethe/internal/config"
	"github.com/lazypower/lethe/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the degradation loop with the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Float64Var(&flagDecayInterval, "decay-interval", 0, "seconds between decay opportunities")
	serveCmd.Flags().Float64Var(&flagDecayProbability, "decay-prob", 0, "probability of decay per opportunity")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed (0 = time-based)")
	serveCmd.Flags().BoolVar(&flagJournal, "journal", true, "record events to the journal database")
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.lethe/lethe.toml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	sys, journal, err := buildSystem()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	srv := server.New(sys, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		sys.Run(loopCtx, 0)
	}()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "lethe serving on %s\n", addr)
		if journal != nil {
			fmt.Fprintf(os.Stderr, "  journal: %s\n", journal.Path)
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	stopLoop()
	<-loopDone

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
