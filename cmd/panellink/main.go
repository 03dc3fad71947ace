// Panellink is a control utility for USB-attached LCD panels.
//
// It provides bus discovery, device settings commands, media pushes and
// firmware upgrades for supported panels. The tool speaks the panel's raw
// HID protocol directly and needs no vendor software.
//
// Usage:
//
//	panellink [command] [flags]
//
// See 'panellink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "panellink",
	Short: "LCD Panel Control Utility",
	Long: `A standalone utility for controlling USB-attached LCD panels.

Provides bus discovery, device settings (brightness, rotation, sleep
behavior), media pushes, suspend mode management and firmware upgrades.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("panellink %s\n", version.Full())
	},
}
