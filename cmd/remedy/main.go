// Command remedy watches a service managed through its own CLI and repairs
// it when health probes fail.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/config"
	"github.com/remedy-sh/remedy/internal/logging"
	"github.com/remedy-sh/remedy/internal/state"
)

var version = "0.3.0"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "remedy",
	Short: "Self-healing watchdog for CLI-managed services",
	Long: `remedy keeps a service alive by probing it through its own CLI and
walking a repair escalation ladder when it is unhealthy:

  1. Official repair steps (doctor, restart)
  2. An AI agent restricted to configuration changes
  3. An AI agent allowed to change code (opt-in)

Attempts are rate-limited by a cooldown and a per-day AI budget, and every
attempt leaves a full evidence trail under the state directory. A PID lock
file keeps concurrent instances from fighting over the same target.

Get started:
  remedy init       # write the default config
  remedy check      # one health check
  remedy monitor    # watch and repair continuously`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "Path to the remedy config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// mustLoadConfig loads the config file or exits, pointing new users at
// 'remedy init' when the file is simply missing.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Run 'remedy init' to create a config file.\n")
		}
		os.Exit(1)
	}
	return cfg
}

// mustLogger builds the shared stderr-plus-file logger or exits.
func mustLogger(cfg *config.Config) (*slog.Logger, func()) {
	logger, closeSink, err := logging.New(cfg.Monitor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return logger, closeSink
}

// mustStore opens the state store or exits.
func mustStore(cfg *config.Config) *state.Store {
	store, err := state.NewStore(cfg.Monitor.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return store
}
