package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/muurk/froeling/internal/logging"
	"github.com/muurk/froeling/internal/metrics"
	"github.com/muurk/froeling/internal/protocol"
	"go.uber.org/zap"
)

// DefaultMaxLineLength bounds how many bytes a client may send without a
// line delimiter before it is disconnected
const DefaultMaxLineLength = 4096

// DefaultMaxPendingOutput bounds the responses queued for a client that is
// not reading them
const DefaultMaxPendingOutput = 1 << 20

const acceptBackoff = 100 * time.Millisecond

var (
	// ErrClosed is returned by Attach when Run is not active
	ErrClosed = errors.New("relay closed")
	// ErrRunning is returned by a second call to Run
	ErrRunning = errors.New("relay already running")
)

// Executor runs one command against the boiler. *link.Link implements it.
type Executor interface {
	Execute(command byte, parameters []byte) ([]byte, error)
}

// Config holds relay settings
type Config struct {
	MaxLineLength    int            // 0 = DefaultMaxLineLength
	MaxPendingOutput int            // 0 = DefaultMaxPendingOutput
	Metrics          *metrics.Relay // nil disables metrics
}

// Relay serializes hex command lines from many clients onto one Executor.
//
// A single loop goroutine owns every client buffer and is the only caller of
// the Executor. Per-connection goroutines do nothing but move bytes between
// sockets and the loop, so a command executes while every other client's
// input waits in line.
type Relay struct {
	exec    Executor
	maxLine int
	maxOut  int
	metrics *metrics.Relay

	events  chan any
	done    chan struct{}
	running atomic.Bool

	// loop goroutine only
	clients map[uint64]*client
	nextID  uint64
}

// New creates a relay in front of exec
func New(exec Executor, cfg Config) *Relay {
	maxLine := cfg.MaxLineLength
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	maxOut := cfg.MaxPendingOutput
	if maxOut <= 0 {
		maxOut = DefaultMaxPendingOutput
	}
	return &Relay{
		exec:    exec,
		maxLine: maxLine,
		maxOut:  maxOut,
		metrics: cfg.Metrics,
		events:  make(chan any),
		done:    make(chan struct{}),
		clients: make(map[uint64]*client),
	}
}

// Run accepts clients from ln (which may be nil when clients only arrive
// through Attach) and serves them until ctx is cancelled. On return the
// listener and every client connection are closed.
func (r *Relay) Run(ctx context.Context, ln net.Listener) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer r.shutdown(ln)

	if ln != nil {
		logging.Info("Relay listening", zap.String("addr", ln.Addr().String()))
		go r.acceptLoop(ln)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-r.events:
			r.handle(ev)
		}
	}
}

// Attach hands an established connection to the relay. It returns once the
// loop has taken ownership of conn, or ErrClosed if Run has not started or
// has returned. conn is left open on error.
func (r *Relay) Attach(conn io.ReadWriteCloser, remoteAddr, transport string) error {
	if !r.running.Load() {
		return ErrClosed
	}
	if !r.send(acceptedEvent{conn: conn, remote: remoteAddr, transport: transport}) {
		return ErrClosed
	}
	return nil
}

// send delivers an event to the loop unless the relay is shutting down
func (r *Relay) send(ev any) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Relay) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			select {
			case <-r.done:
				return
			case <-time.After(acceptBackoff):
			}
			continue
		}

		if !r.send(acceptedEvent{conn: conn, remote: conn.RemoteAddr().String(), transport: TransportTCP}) {
			_ = conn.Close()
			return
		}
	}
}

func (r *Relay) handle(ev any) {
	switch e := ev.(type) {
	case acceptedEvent:
		r.register(e)
	case readEvent:
		r.guard(e.c, func() { r.handleRead(e.c, e.data, e.err) })
	case writtenEvent:
		r.guard(e.c, func() { r.handleWritten(e.c, e.n, e.err) })
	}
}

// guard confines a panic to the client being served
func (r *Relay) guard(c *client, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Recovered panic while serving client",
				zap.String("remote_addr", c.remote),
				zap.Any("panic", p),
			)
			r.closeClient(c, closePanic)
		}
	}()
	fn()
}

func (r *Relay) register(e acceptedEvent) {
	r.nextID++
	c := newClient(r.nextID, e.conn, e.remote, e.transport)
	r.clients[c.id] = c

	r.metrics.ClientAccepted(c.transport)
	logging.LogConnection(c.remote, c.transport, "connection_accepted")

	go r.readLoop(c)
	go r.writeLoop(c)
}

func (r *Relay) handleRead(c *client, data []byte, err error) {
	if c.closed {
		return
	}

	if len(data) > 0 {
		r.metrics.Received(len(data))

		if i := validStream(data); i >= 0 {
			logging.Warn("Disallowed byte from client, disconnecting",
				zap.String("remote_addr", c.remote),
				zap.String("byte", fmt.Sprintf("%02x", data[i])),
			)
			logging.LogRawBytes("Bad input bytes", data)
			r.closeClient(c, closeViolation)
			return
		}

		c.inb = append(c.inb, data...)
		r.processLines(c)
		if c.closed {
			return
		}
		if len(c.inb) > r.maxLine {
			logging.Warn("Line too long, disconnecting",
				zap.String("remote_addr", c.remote),
				zap.Int("buffered", len(c.inb)),
			)
			r.closeClient(c, closeLineTooLong)
			return
		}
		r.flush(c)
	}

	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		c.eof = true
		if !c.writing && len(c.outb) == 0 {
			r.closeClient(c, closeEOF)
		}
	default:
		logging.Debug("Client read failed", zap.String("remote_addr", c.remote), zap.Error(err))
		r.closeClient(c, closeReadError)
	}
}

// processLines executes every complete line in the inbound buffer in order.
// A client whose unsent responses exceed maxOut is closed before the next
// command runs.
func (r *Relay) processLines(c *client) {
	buf := c.inb
	for !c.closed {
		line, rest, ok := nextLine(buf)
		if !ok {
			break
		}
		if len(c.outb) > r.maxOut {
			logging.Warn("Client not reading responses, disconnecting",
				zap.String("remote_addr", c.remote),
				zap.Int("pending", len(c.outb)),
			)
			r.closeClient(c, closeOutputOverflow)
			return
		}
		buf = rest
		r.serveLine(c, line)
	}
	c.inb = append(c.inb[:0], buf...)
}

func (r *Relay) serveLine(c *client, line []byte) {
	msg, err := decodeLine(line)
	if err != nil {
		c.outb = append(c.outb, errorLine(HexDecodeError, err.Error())...)
		return
	}
	if len(msg) == 0 {
		return
	}

	command, params := msg[0], msg[1:]
	start := time.Now()
	payload, err := r.exec.Execute(command, params)
	elapsed := time.Since(start)

	if err == nil {
		r.metrics.Command(command, "ok", elapsed)
		c.outb = append(c.outb, responseLine(payload)...)
		return
	}

	var perr *protocol.Error
	if errors.As(err, &perr) {
		r.metrics.Command(command, perr.Kind.String(), elapsed)
		logging.Debug("Command failed",
			zap.String("remote_addr", c.remote),
			zap.String("command", fmt.Sprintf("%02x", command)),
			zap.Error(err),
		)
		c.outb = append(c.outb, errorLine(perr.Kind.String(), perr.Detail())...)
		return
	}

	r.metrics.Command(command, "error", elapsed)
	logging.Error("Unexpected command failure, disconnecting client",
		zap.String("remote_addr", c.remote),
		zap.Error(err),
	)
	r.closeClient(c, closeExecError)
}

// flush hands pending output to the writer goroutine if it is idle
func (r *Relay) flush(c *client) {
	if c.closed || c.writing || len(c.outb) == 0 {
		return
	}
	c.writing = true
	c.writeq <- c.outb
}

func (r *Relay) handleWritten(c *client, n int, err error) {
	if c.closed {
		return
	}
	c.writing = false
	if err != nil {
		logging.Debug("Client write failed", zap.String("remote_addr", c.remote), zap.Error(err))
		r.closeClient(c, closeWriteError)
		return
	}

	c.outb = c.outb[n:]
	if len(c.outb) == 0 {
		c.outb = nil
		if c.eof {
			r.closeClient(c, closeEOF)
		}
		return
	}
	r.flush(c)
}

func (r *Relay) closeClient(c *client, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.gone)
	_ = c.conn.Close()
	delete(r.clients, c.id)

	r.metrics.ClientClosed(reason)
	logging.LogConnection(c.remote, c.transport, "connection_closed_"+reason)
}

func (r *Relay) shutdown(ln net.Listener) {
	close(r.done)
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}
	for _, c := range r.clients {
		r.closeClient(c, closeShutdown)
	}
	logging.Info("Relay stopped")
}
