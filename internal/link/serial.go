package link

import (
	"errors"
	"time"

	"github.com/muurk/froeling/internal/logging"
	"github.com/muurk/froeling/internal/protocol"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultBaudRate is the boiler's service interface speed
const DefaultBaudRate = 57600

// Config holds serial port configuration
type Config struct {
	Device         string        // TTY device, e.g. /dev/ttyUSB0
	BaudRate       int           // Defaults to DefaultBaudRate
	ReadTimeout    time.Duration // Defaults to DefaultReadTimeout
	IgnoreChecksum bool
}

// DefaultConfig returns the settings the boiler ships with
func DefaultConfig(device string) Config {
	return Config{
		Device:         device,
		BaudRate:       DefaultBaudRate,
		ReadTimeout:    DefaultReadTimeout,
		IgnoreChecksum: true,
	}
}

// port is the subset of serial.Port the transport uses
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Close() error
}

// SerialTransport adapts a serial port to the Transport contract
type SerialTransport struct {
	port port
}

// Open opens the serial device and returns a Link over it. Failures are
// reported as protocol.KindConnectionInit errors.
func Open(cfg Config) (*Link, error) {
	if cfg.Device == "" {
		return nil, protocol.NewConnectionInitError(errors.New("no TTY device given"))
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, protocol.NewConnectionInitError(err)
	}

	logging.Info("Serial port opened",
		zap.String("device", cfg.Device),
		zap.Int("baud", cfg.BaudRate),
		zap.Bool("ignore_checksum", cfg.IgnoreChecksum),
	)

	return New(&SerialTransport{port: p},
		WithReadTimeout(cfg.ReadTimeout),
		WithIgnoreChecksum(cfg.IgnoreChecksum),
	), nil
}

// Write writes p to the port
func (t *SerialTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

// Read collects up to n bytes until the timeout elapses. The port hands back
// whatever is available as soon as anything arrives, so it is polled with
// the remaining time until n bytes are in or the deadline passes.
func (t *SerialTransport) Read(n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(timeout)

	for got < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return buf[:got], err
		}
		k, err := t.port.Read(buf[got:])
		got += k
		if err != nil {
			return buf[:got], err
		}
		if k == 0 {
			// Timed out with nothing new
			break
		}
	}

	return buf[:got], nil
}

// ResetInputBuffer discards unread input
func (t *SerialTransport) ResetInputBuffer() error {
	return t.port.ResetInputBuffer()
}

// Close closes the port
func (t *SerialTransport) Close() error {
	return t.port.Close()
}
