package cli

import (
	"github.com/spf13/cobra"

	"github.com/marrowvale/lockarbiter/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lock arbiter daemon",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "lockarbiterd.yaml", "path to daemon configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	l := cliLogger(cmd)
	cfgPath, _ := cmd.Flags().GetString("config")

	svc, err := daemon.Build(l, cfgPath)
	if err != nil {
		return err
	}
	return svc.Run()
}
