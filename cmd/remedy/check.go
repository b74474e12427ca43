package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/monitor"
	"github.com/remedy-sh/remedy/internal/probe"
	"github.com/remedy-sh/remedy/internal/proc"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one health check against the target",
	Long: `Probe the target's health and status endpoints once and report.

A healthy sighting is recorded in the state file so 'remedy status' can
show when the target was last known good.

Exit codes:
  0 - target is healthy
  1 - target is unhealthy

Example:
  remedy check
  remedy check --json | jq .healthy`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		logger, closeSink := mustLogger(cfg)
		defer closeSink()
		store := mustStore(cfg)

		prober := probe.New(cfg, proc.NewRunner(), logger)
		res, err := monitor.RunCheck(prober, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		if checkJSON {
			data, merr := json.MarshalIndent(res, "", "  ")
			if merr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", merr)
				os.Exit(1)
			}
			fmt.Println(string(data))
		} else {
			printCheck(res)
		}

		if !res.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the check result as JSON")
	rootCmd.AddCommand(checkCmd)
}

func printCheck(res monitor.CheckResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if res.Healthy {
		fmt.Printf("%s Target is healthy\n", green("✓"))
	} else {
		fmt.Printf("%s Target is unhealthy\n", red("✗"))
	}
	printProbe(res.Health)
	printProbe(res.Status)
}

func printProbe(p probe.Probe) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	mark := green("✓")
	if !p.OK() {
		mark = red("✗")
	}
	fmt.Printf("  %s %s (exit %d, %dms)\n", mark, p.Name, p.Cmd.ExitCode, p.Cmd.DurationMillis())

	if !p.OK() {
		out := strings.TrimSpace(p.Cmd.Stderr)
		if out == "" {
			out = strings.TrimSpace(p.Cmd.Stdout)
		}
		if out != "" {
			if line, _, cut := strings.Cut(out, "\n"); cut {
				out = line + " ..."
			}
			fmt.Printf("    %s\n", out)
		}
	}
}
