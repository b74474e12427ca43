package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/remedy-sh/remedy/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write a commented starter config to the config path.

The default path is ~/.remedy/config.yaml; use --config to choose another
location. An existing file is only overwritten with --force.

Example:
  remedy init
  remedy init --config ./remedy.yaml
  remedy init --force`,
	Run: func(cmd *cobra.Command, args []string) {
		written, err := config.WriteDefault(cfgPath, initForce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Wrote config\n\n", green("✓"))
		fmt.Printf("  Config: %s\n", cyan(written))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("edit the target section if your service is not openclaw"))
		fmt.Printf("  %s\n", gray("remedy check"))
		fmt.Printf("  %s\n", gray("remedy monitor"))
		fmt.Println()
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
