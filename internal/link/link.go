package link

import (
	"fmt"
	"io"
	"time"

	"github.com/muurk/froeling/internal/logging"
	"github.com/muurk/froeling/internal/protocol"
	"go.uber.org/zap"
)

// DefaultReadTimeout bounds each header and body read
const DefaultReadTimeout = time.Second

// Transport is the serial port as the link needs it.
type Transport interface {
	// Write sends bytes to the boiler
	Write(p []byte) (int, error)
	// Read returns up to n bytes; fewer (possibly none) when timeout elapses first
	Read(n int, timeout time.Duration) ([]byte, error)
	// ResetInputBuffer discards bytes received but not yet read
	ResetInputBuffer() error
}

// Link is the logical connection to the boiler. It holds no state between
// calls apart from its configuration.
//
// Link does no locking. At most one Execute may be in flight at a time; the
// relay guarantees this by calling it from a single goroutine.
type Link struct {
	transport      Transport
	ignoreChecksum bool
	readTimeout    time.Duration
}

// Option configures a Link
type Option func(*Link)

// WithIgnoreChecksum sets whether checksum mismatches in responses are
// accepted. The default is true.
func WithIgnoreChecksum(ignore bool) Option {
	return func(l *Link) { l.ignoreChecksum = ignore }
}

// WithReadTimeout sets the bound for each header and body read
func WithReadTimeout(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.readTimeout = d
		}
	}
}

// New creates a Link over an already-open transport
func New(t Transport, opts ...Option) *Link {
	l := &Link{
		transport:      t,
		ignoreChecksum: true,
		readTimeout:    DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IgnoresChecksum reports the checksum policy of the link
func (l *Link) IgnoresChecksum() bool {
	return l.ignoreChecksum
}

// Execute sends one command with its parameters and returns the response
// payload, stripped of the envelope, the echoed command and the checksum.
//
// Errors are *protocol.Error values: KindTransportIO for port failures and
// the response-read kinds for unusable responses. Nothing is retried.
func (l *Link) Execute(command byte, parameters []byte) ([]byte, error) {
	if 1+len(parameters) > protocol.MaxMessageSize {
		return nil, fmt.Errorf("command %02X with %d parameter bytes: %w", command, len(parameters), protocol.ErrMessageTooLong)
	}

	// Drop leftovers of an earlier timed-out exchange before starting a new one
	if err := l.transport.ResetInputBuffer(); err != nil {
		return nil, protocol.NewTransportError(err)
	}

	frame := protocol.BuildRequest(command, parameters)
	logging.LogExchange("tx", frame)

	n, err := l.transport.Write(frame)
	if err != nil {
		return nil, protocol.NewTransportError(err)
	}
	if n < len(frame) {
		return nil, protocol.NewTransportError(io.ErrShortWrite)
	}

	header, err := l.transport.Read(protocol.HeaderSize, l.readTimeout)
	if err != nil {
		return nil, protocol.NewTransportError(err)
	}
	logging.LogExchange("rx_header", header)

	body := func(n int) ([]byte, error) {
		data, err := l.transport.Read(n, l.readTimeout)
		logging.LogExchange("rx_body", data)
		return data, err
	}

	payload, err := protocol.ReadResponse(header, body, command, l.ignoreChecksum)
	if err != nil {
		logging.Debug("Command failed",
			zap.String("command", fmt.Sprintf("%02x", command)),
			zap.Error(err),
		)
		return nil, err
	}
	return payload, nil
}

// Close closes the transport if it can be closed
func (l *Link) Close() error {
	if c, ok := l.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
