package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/loader"
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Round-trip the .gcda.imports persisted text format",
}

var importsReadCmd = &cobra.Command{
	Use:   "read <file> <descriptors.json>",
	Short: "Parse a .gcda.imports file against a descriptor document and print resolved module ids",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, _, err := loader.LoadFile(args[1])
		if err != nil {
			return fmt.Errorf("imports read: load %s: %w", args[1], err)
		}
		ids, err := loader.ReadImportsFile(args[0], set)
		if err != nil {
			return fmt.Errorf("imports read: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var importsWriteCmd = &cobra.Command{
	Use:   "write <module-id> <result.json> <out-file>",
	Short: "Write a single module's aux list as a .gcda.imports file from an export result",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var moduleID uint32
		if _, err := fmt.Sscanf(args[0], "%d", &moduleID); err != nil {
			return fmt.Errorf("imports write: invalid module id %q", args[0])
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("imports write: open %s: %w", args[1], err)
		}
		defer f.Close()

		var result export.Result
		if err := json.NewDecoder(f).Decode(&result); err != nil {
			return fmt.Errorf("imports write: decode %s: %w", args[1], err)
		}

		if err := (export.TextWriter{}).WriteModuleToFile(result, moduleID, args[2]); err != nil {
			return fmt.Errorf("imports write: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importsCmd)
	importsCmd.AddCommand(importsReadCmd)
	importsCmd.AddCommand(importsWriteCmd)
}
