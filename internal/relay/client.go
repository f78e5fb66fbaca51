package relay

import "io"

// Transport kinds reported in logs and metrics
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Reasons a client was closed
const (
	closeEOF            = "eof"
	closeReadError      = "read_error"
	closeWriteError     = "write_error"
	closeViolation      = "protocol_violation"
	closeLineTooLong    = "line_too_long"
	closeOutputOverflow = "output_overflow"
	closeExecError      = "exec_error"
	closePanic          = "panic"
	closeShutdown       = "shutdown"
)

const readBufferSize = 4096

// client is one attached connection. All fields except conn, writeq and gone
// belong to the loop goroutine.
type client struct {
	id        uint64
	conn      io.ReadWriteCloser
	remote    string
	transport string

	inb  []byte // bytes not yet terminated by CR or LF
	outb []byte // bytes queued for the socket

	writing bool // writer goroutine holds outb[:n]
	eof     bool // peer stopped sending; close once outb drains
	closed  bool

	writeq chan []byte
	gone   chan struct{}
}

func newClient(id uint64, conn io.ReadWriteCloser, remote, transport string) *client {
	return &client{
		id:        id,
		conn:      conn,
		remote:    remote,
		transport: transport,
		writeq:    make(chan []byte, 1),
		gone:      make(chan struct{}),
	}
}

// Events delivered to the loop goroutine

type acceptedEvent struct {
	conn      io.ReadWriteCloser
	remote    string
	transport string
}

type readEvent struct {
	c    *client
	data []byte
	err  error
}

type writtenEvent struct {
	c   *client
	n   int
	err error
}

// readLoop feeds everything the peer sends to the loop
func (r *Relay) readLoop(c *client) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), buf[:n]...)
		}
		if n == 0 && err == nil {
			continue
		}
		if !r.send(readEvent{c: c, data: data, err: err}) || err != nil {
			return
		}
	}
}

// writeLoop writes whatever the loop hands it and reports back
func (r *Relay) writeLoop(c *client) {
	for {
		select {
		case p := <-c.writeq:
			n, err := c.conn.Write(p)
			if !r.send(writtenEvent{c: c, n: n, err: err}) || err != nil {
				return
			}
		case <-c.gone:
			return
		}
	}
}
