// Fwfleet installs firmware packages on every device behind a motion
// management endpoint in one run.
//
// It connects to the endpoint's HTTP API, enumerates the devices on the
// EtherCAT chain, picks a package per device position and uploads all
// packages concurrently. One device failing never stops the others; the
// run ends with a per-device report.
//
// Usage:
//
//	fwfleet install --firmware 1=node.zip --firmware 2=circulo.zip
//
// See 'fwfleet --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "fwfleet",
	Short: "Concurrent firmware installation for motion device fleets",
	Long: `Install firmware packages on every device behind a motion management
endpoint in one run.

Devices are matched to packages by their position on the chain. Devices
without a package are skipped, and a failure on one device never affects
the others.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless --log-level or FWFLEET_LOG_LEVEL is set
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level on stderr (debug, info, warn, error); default from "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return printJSON(cmd.OutOrStdout(), version.Get())
		}
		info := version.Get()
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "fwfleet %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
		return err
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}
