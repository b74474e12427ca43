package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/lock"
	"github.com/remedy-sh/remedy/internal/proc"
	"github.com/remedy-sh/remedy/internal/repair"
)

var (
	repairForce bool
	repairJSON  bool
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Run the repair escalation once",
	Long: `Check the target and, if it is unhealthy, run one pass of the repair
escalation: official steps first, then the AI tiers when enabled.

A cooldown guards against repair storms; --force bypasses it. Everything
the attempt does is recorded under <state_dir>/attempts/<timestamp>/.

Exit codes:
  0 - target healthy (already, or after repair)
  1 - target still unhealthy, or repair not attempted
  2 - another remedy instance holds the lock

Example:
  remedy repair
  remedy repair --force
  remedy repair --json | jq .details`,
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
			fmt.Fprintf(os.Stderr, "Error: another remedy instance holds the lock\n")
			os.Exit(2)
		}
		defer flock.Release()

		engine := repair.New(cfg, store, proc.NewRunner(), logger)
		res, err := engine.Attempt(repairForce)
		if err != nil {
			flock.Release()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if repairJSON {
			data, merr := json.MarshalIndent(res, "", "  ")
			if merr != nil {
				flock.Release()
				fmt.Fprintf(os.Stderr, "Error: %v\n", merr)
				os.Exit(1)
			}
			fmt.Println(string(data))
		} else {
			printRepair(res)
		}

		if !res.Fixed {
			flock.Release()
			os.Exit(1)
		}
	},
}

func init() {
	repairCmd.Flags().BoolVar(&repairForce, "force", false, "Bypass the repair cooldown")
	repairCmd.Flags().BoolVar(&repairJSON, "json", false, "Print the attempt result as JSON")
	rootCmd.AddCommand(repairCmd)
}

func printRepair(res repair.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	d := res.Details
	switch {
	case d.AlreadyHealthy:
		fmt.Printf("%s Target already healthy, nothing to repair\n", green("✓"))
		return
	case d.RepairDisabled:
		fmt.Printf("%s Target unhealthy but repair is disabled in config\n", yellow("⚠"))
		return
	case d.Cooldown:
		fmt.Printf("%s Repair on cooldown (%ds remaining, --force to override)\n",
			yellow("⚠"), d.CooldownRemainingSeconds)
		return
	}

	fmt.Printf("Ran %d official step(s)", len(d.Official))
	if res.UsedAI {
		fmt.Printf(", escalated to AI (%s stage)", d.AIStage)
	}
	fmt.Println()

	if res.Fixed {
		fmt.Printf("%s Target repaired\n", green("✓"))
	} else {
		fmt.Printf("%s Target still unhealthy\n", red("✗"))
	}
	fmt.Printf("  Evidence: %s\n", gray(d.AttemptDir))
}
