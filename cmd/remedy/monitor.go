package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/lock"
	"github.com/remedy-sh/remedy/internal/monitor"
	"github.com/remedy-sh/remedy/internal/probe"
	"github.com/remedy-sh/remedy/internal/proc"
	"github.com/remedy-sh/remedy/internal/repair"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the target and repair it when it breaks",
	Long: `Run the watch loop: check the target every interval, and start the
repair escalation whenever a check fails.

Only one remedy instance can watch a target at a time. The loop takes the
PID lock in the state directory; stale locks left by dead instances are
reclaimed automatically.

The loop runs until interrupted.

Example:
  remedy monitor
  REMEDY_INTERVAL_SECONDS=30 remedy monitor`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		logger, closeSink := mustLogger(cfg)
		defer closeSink()
		store := mustStore(cfg)

		flock := lock.New(filepath.Join(cfg.Monitor.StateDir, lock.FileName))
		ok, err := flock.Acquire(0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: another remedy instance is already monitoring\n")
			os.Exit(2)
		}
		defer flock.Release()

		runner := proc.NewRunner()
		engine := repair.New(cfg, store, runner, logger)
		prober := probe.New(cfg, runner, logger)
		m := monitor.New(cfg, store, prober, engine, logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "\nShutting down monitor...")
			cancel()
		}()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Monitor started (session %s)\n", green("✓"), cyan(engine.SessionID()))
		fmt.Printf("  Target: %s\n", cfg.Target.Command)
		fmt.Printf("  Checking every %v\n", cfg.Monitor.Interval())
		fmt.Printf("  State: %s\n", cfg.Monitor.StateDir)
		fmt.Printf("  Press Ctrl+C to stop\n\n")

		if err := m.Run(ctx); err != nil {
			flock.Release()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Monitor stopped\n", green("✓"))
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
