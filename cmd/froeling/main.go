// Froeling talks to Fröling wood-pellet boilers over their serial service
// interface.
//
// It runs a relay that shares one boiler connection with many network
// clients, and provides one-shot commands for reading the boiler state and
// temperatures either directly from the serial port or through a relay.
//
// Usage:
//
//	froeling [command] [flags]
//
// See 'froeling --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/froeling/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "froeling",
	Short: "Fröling boiler serial relay",
	Long: `Read and relay the serial service interface of Fröling boilers.

'froeling relay' owns the serial port and shares it with TCP and WebSocket
clients, one command at a time. The other commands talk to the boiler
directly, or through a running relay when --relay is given.`,
	Version:       version.Version,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Long())
	},
}
