package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/froeling/internal/boiler"
	"github.com/muurk/froeling/internal/config"
	"github.com/muurk/froeling/internal/link"
	"github.com/muurk/froeling/internal/logging"
	"github.com/muurk/froeling/internal/relay"
	"github.com/muurk/froeling/internal/ui"
)

// Common flags
var (
	configPath string
	ttyPath    string
	relayAddr  string
	timeout    time.Duration
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/froeling/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&ttyPath, "tty", "", "Serial device (overrides serial.tty)")
	rootCmd.PersistentFlags().StringVar(&relayAddr, "relay", "", "Talk to a relay at host:port instead of the serial port")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Relay connect and exchange timeout")

	stateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	valuesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("tty") {
		cfg.Serial.TTY = ttyPath
	}
	return cfg, nil
}

// boilerConn is a boiler connection, direct or through a relay
type boilerConn interface {
	boiler.Executor
	io.Closer
}

// connect opens the serial port, or dials the relay when --relay is set.
// The returned string names the source for display.
func connect(cmd *cobra.Command) (boilerConn, string, error) {
	// Silent unless FROELING_LOG_LEVEL is set
	if err := logging.InitializeFromEnv(); err != nil {
		_ = err
	}

	if relayAddr != "" {
		r, err := relay.Dial(cmd.Context(), relayAddr, timeout)
		if err != nil {
			return nil, "", err
		}
		return r, "relay " + relayAddr, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	l, err := link.Open(link.Config{
		Device:         cfg.Serial.TTY,
		BaudRate:       cfg.Serial.Baud,
		ReadTimeout:    cfg.Serial.ReadTimeout,
		IgnoreChecksum: cfg.Serial.IgnoreChecksum,
	})
	if err != nil {
		return nil, "", err
	}
	return l, cfg.Serial.TTY, nil
}

func connectionTips() []string {
	if relayAddr != "" {
		return []string{
			"Check the relay is running: froeling relay",
			"Find relays on the network: froeling discover",
		}
	}
	return []string{
		"List serial devices: froeling ports",
		"Pick the device with --tty or serial.tty in the config file",
		"Check you can open the device (dialout group)",
		"Stop any relay that already holds the port, or use --relay",
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stateCmd prints the boiler status display
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the boiler state",
	Long: `Read the boiler state (command 0x51) and print its display lines,
decoded from ISO-8859-1.`,
	Example: `  # Directly from the serial port
  froeling state --tty /dev/ttyUSB0

  # Through a relay
  froeling state --relay boiler.local:8023`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func runState(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p := ui.NewPrinter(cmd.OutOrStdout())

	conn, source, err := connect(cmd)
	if err != nil {
		p.PrintError("Connection failed", err, connectionTips())
		return err
	}
	defer conn.Close()

	state, err := boiler.ReadState(conn)
	if err != nil {
		p.PrintError("Reading state failed", err, []string{
			"Check the cable to the boiler service port",
			"Retry; the boiler may have been busy",
		})
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), struct {
			Raw   string   `json:"raw"`
			Lines []string `json:"lines"`
		}{hex.EncodeToString(state.Raw), state.Lines})
	}

	p.PrintHeader("Boiler State", "froeling state", ui.Param{Key: "Source", Value: source})
	p.PrintResult(ui.NewSuccessResult("State read").AddLines(state.Lines...))
	return nil
}

// valuesCmd prints the current temperatures
var valuesCmd = &cobra.Command{
	Use:   "values",
	Short: "Show current temperatures",
	Long: `Read the current temperatures (command 0x30) for the built-in value
catalog and print them in degrees Celsius.`,
	Args: cobra.NoArgs,
	RunE: runValues,
}

func runValues(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p := ui.NewPrinter(cmd.OutOrStdout())

	conn, source, err := connect(cmd)
	if err != nil {
		p.PrintError("Connection failed", err, connectionTips())
		return err
	}
	defer conn.Close()

	values, err := boiler.ReadValues(conn, boiler.DefaultCatalog)
	if err != nil {
		p.PrintError("Reading values failed", err, []string{
			"Check the cable to the boiler service port",
			"Retry; the boiler may have been busy",
		})
		return err
	}

	if jsonOutput {
		type reading struct {
			Label   string `json:"label"`
			Address string `json:"address"`
			Raw     string `json:"raw"`
			Value   string `json:"value"`
		}
		out := make([]reading, 0, len(values.Readings))
		for _, r := range values.Readings {
			out = append(out, reading{
				Label:   r.Label,
				Address: fmt.Sprintf("%04x", r.Address),
				Raw:     hex.EncodeToString(r.Raw),
				Value:   r.Text,
			})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	p.PrintHeader("Current Values", "froeling values", ui.Param{Key: "Source", Value: source})
	result := ui.NewSuccessResult(fmt.Sprintf("%d of %d values read", len(values.Readings), len(boiler.DefaultCatalog)))
	for _, r := range values.Readings {
		result.AddDetail(r.Label, r.Text)
	}
	p.PrintResult(result)
	return nil
}

// sendCmd sends one raw command
var sendCmd = &cobra.Command{
	Use:   "send <hex>",
	Short: "Send a raw command",
	Long: `Send one command to the boiler and print the response payload in hex.

The argument is the command byte followed by its parameters, hex encoded,
exactly as a relay client would send it.`,
	Example: `  # Boiler state
  froeling send 51

  # Current value at address 0x0000
  froeling send 300000`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

// parseCommand splits a hex argument into the command byte and parameters
func parseCommand(arg string) (byte, []byte, error) {
	msg, err := hex.DecodeString(strings.TrimSpace(arg))
	if err != nil {
		return 0, nil, fmt.Errorf("invalid hex %q: %w", arg, err)
	}
	if len(msg) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}
	return msg[0], msg[1:], nil
}

func runSend(cmd *cobra.Command, args []string) error {
	command, params, err := parseCommand(args[0])
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	conn, _, err := connect(cmd)
	if err != nil {
		ui.NewPrinter(cmd.ErrOrStderr()).PrintError("Connection failed", err, connectionTips())
		return err
	}
	defer conn.Close()

	resp, err := conn.Execute(command, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(resp))
	return nil
}

var watchInterval time.Duration

// watchCmd shows a live temperature dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live temperature dashboard",
	Long: `Poll the current temperatures and show them in a full-screen view.

Press r to refresh immediately, q to quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Second, "Refresh interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval < time.Second {
		return fmt.Errorf("--interval must be at least 1s, got %s", watchInterval)
	}
	cmd.SilenceUsage = true

	conn, source, err := connect(cmd)
	if err != nil {
		ui.NewPrinter(cmd.ErrOrStderr()).PrintError("Connection failed", err, connectionTips())
		return err
	}
	defer conn.Close()

	fetch := func() (*boiler.Values, error) {
		return boiler.ReadValues(conn, boiler.DefaultCatalog)
	}
	return ui.RunWatch(fetch, watchInterval, source)
}

// withTimeout bounds a network operation started from a command
func withTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
