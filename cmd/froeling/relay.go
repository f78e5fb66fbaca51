package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/froeling/internal/server"
)

// Relay command flags
var (
	listenAddr    string
	httpAddr      string
	enableMDNS    bool
	mdnsInstance  string
	maxLineLength int
	baudRate      int
	strictSum     bool
	logLevel      string
	logFormat     string
	logFile       string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Share the serial port with network clients",
	Long: `Open the boiler's serial port and relay commands from TCP clients.

Clients send one hex-encoded command per line and receive one response line:
the payload in lowercase hex, or "!<ErrorType>: <message>". Commands from all
clients are serialized; only one is ever on the serial line.

With --http the relay also serves WebSocket clients on /ws, Prometheus
metrics on /metrics and a health check on /healthz. With --mdns it announces
itself as _froeling._tcp for 'froeling discover'.

Flags override the config file.`,
	Example: `  # Relay /dev/ttyUSB0 on port 8023
  froeling relay

  # Different device and port, with metrics and mDNS
  froeling relay --tty /dev/ttyUSB1 --listen :9000 --http :9100 --mdns

  # Reject responses with a bad checksum
  froeling relay --strict-checksum --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&listenAddr, "listen", "", "Relay listen address (default :8023)")
	relayCmd.Flags().StringVar(&httpAddr, "http", "", "HTTP listen address for /ws, /metrics and /healthz (disabled if empty)")
	relayCmd.Flags().BoolVar(&enableMDNS, "mdns", false, "Advertise the relay over mDNS")
	relayCmd.Flags().StringVar(&mdnsInstance, "instance", "", "mDNS instance name (default hostname)")
	relayCmd.Flags().IntVar(&maxLineLength, "max-line-length", 0, "Longest unterminated client line before disconnecting")
	relayCmd.Flags().IntVar(&baudRate, "baud", 0, "Serial baud rate (default 57600)")
	relayCmd.Flags().BoolVar(&strictSum, "strict-checksum", false, "Reject responses with a wrong checksum")
	relayCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	relayCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
	relayCmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file, rotated by size")

	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Relay.Listen = listenAddr
	}
	if flags.Changed("http") {
		cfg.HTTP.Listen = httpAddr
	}
	if flags.Changed("mdns") {
		cfg.MDNS.Enabled = enableMDNS
	}
	if flags.Changed("instance") {
		cfg.MDNS.Instance = mdnsInstance
	}
	if flags.Changed("max-line-length") {
		cfg.Relay.MaxLineLength = maxLineLength
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("strict-checksum") {
		cfg.Serial.IgnoreChecksum = !strictSum
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	cmd.SilenceUsage = true
	return srv.Start()
}
