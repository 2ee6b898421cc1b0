// Package cmd implements the lipo-cli cobra application: group-grouping
// runs, .gcda.imports round-trips, and version reporting, in the same
// root-plus-one-file-per-subcommand shape as the teacher's cmd/cli/cmd.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lipo-groupgen/pkg/utils"
)

var (
	verbose bool
	logger  utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lipo-cli",
	Short: "Dynamic module-grouping engine for cross-module inlining",
	Long: `lipo-cli reconstructs a dynamic call graph from profile counters and
groups compilation modules under a memory budget for cross-module
inlining, the link-time step a profile-guided build pipeline runs
between per-module compilation and the final link.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Group modules from a descriptor document
  ` + binName + ` group -i descriptors.json -o out/

  # Use the inclusion-priority algorithm under a memory budget
  ` + binName + ` group -i descriptors.json --algorithm inclusion --max-mem 65536

  # Round-trip a module's persisted import list
  ` + binName + ` imports read out/a.c.gcda.imports descriptors.json`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger { return logger }

// BinName returns the base name of the current executable.
func BinName() string { return filepath.Base(os.Args[0]) }
