package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/froeling/internal/config"
	"github.com/muurk/froeling/internal/discovery"
	"github.com/muurk/froeling/internal/link"
	"github.com/muurk/froeling/internal/ui"
)

var scanTimeout time.Duration

func init() {
	discoverCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for relays")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(configCmd)
}

// discoverCmd finds relays on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find relays on the local network",
	Long: `Listen for relays advertising _froeling._tcp over mDNS.

Relays advertise only when started with --mdns (or mdns.enabled in the
config file).`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p := ui.NewPrinter(cmd.OutOrStdout())

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	ctx, cancel := withTimeout(cmd, scanTimeout+time.Second)
	defer cancel()

	relays, err := scanner.Scan(ctx)
	if err != nil {
		p.PrintError("Discovery failed", err, []string{
			"Check that multicast is allowed on this network",
		})
		return err
	}

	if len(relays) == 0 {
		p.PrintResult(ui.NewFailureResult("No relays found", nil, []string{
			"Start a relay with: froeling relay --mdns",
			"Ensure this machine and the relay share a network segment",
			"Try increasing --scan-timeout",
		}))
		return nil
	}

	result := ui.NewSuccessResult(fmt.Sprintf("Found %d relay(s)", len(relays)))
	for _, r := range relays {
		value := r.Address()
		if r.TTY != "" {
			value += "  " + r.TTY
		}
		if r.Version != "" {
			value += "  " + r.Version
		}
		result.AddDetail(r.Instance, value)
	}
	p.PrintResult(result)
	p.Println("Use 'froeling state --relay <address>' to query a relay")
	return nil
}

// portsCmd lists serial devices
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		p := ui.NewPrinter(cmd.OutOrStdout())

		ports, err := link.ListPorts()
		if err != nil {
			p.PrintError("Listing serial devices failed", err, nil)
			return err
		}
		if len(ports) == 0 {
			p.PrintResult(ui.NewFailureResult("No serial devices found", nil, []string{
				"Plug in the USB serial adapter",
				"Check dmesg for the device name",
			}))
			return nil
		}

		result := ui.NewSuccessResult(fmt.Sprintf("Found %d serial device(s)", len(ports)))
		for _, port := range ports {
			result.AddDetail(port.Name, port.Description())
		}
		p.PrintResult(result)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := config.Default()
		if cmd.Flags().Changed("tty") {
			cfg.Serial.TTY = ttyPath
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
