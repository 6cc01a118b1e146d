// Package cli implements the lockctl command line: offline inspection
// and decision simulation against fixture files, plus a serve
// subcommand that starts the same daemon as cmd/lockarbiterd.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lockctl",
	Short: "Inspect and simulate shared-resource lock arbitration",
	Long:  "lockctl runs the lock arbiter offline against fixture files, or starts the daemon.",
}

// Execute runs the CLI, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
}

func cliLogger(cmd *cobra.Command) hclog.Logger {
	level := hclog.Info
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  "lockctl",
		Level: level,
	})
}
