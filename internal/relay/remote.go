package relay

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"
)

// RemoteError is an error line sent by a relay
type RemoteError struct {
	ID      string // e.g. "NoResponse"
	Message string
}

func (e *RemoteError) Error() string {
	return e.ID + ": " + e.Message
}

// Remote executes commands through a relay over TCP. Like the link it
// stands in for, it handles one command at a time.
type Remote struct {
	conn    net.Conn
	rd      *bufio.Reader
	timeout time.Duration
}

// Dial connects to a relay. timeout bounds the connect and every exchange.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Remote, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to relay %s: %w", addr, err)
	}
	return &Remote{conn: conn, rd: bufio.NewReader(conn), timeout: timeout}, nil
}

// Execute sends one command line and waits for its response line
func (r *Remote) Execute(command byte, parameters []byte) ([]byte, error) {
	if r.timeout > 0 {
		_ = r.conn.SetDeadline(time.Now().Add(r.timeout))
	}

	line := hex.EncodeToString(append([]byte{command}, parameters...)) + "\n"
	if _, err := r.conn.Write([]byte(line)); err != nil {
		return nil, fmt.Errorf("send to relay: %w", err)
	}

	resp, err := r.rd.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read from relay: %w", err)
	}
	return parseResponseLine(strings.TrimRight(resp, "\r\n"))
}

// Close closes the connection
func (r *Remote) Close() error {
	return r.conn.Close()
}

func parseResponseLine(line string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		id, msg, _ := strings.Cut(rest, ": ")
		return nil, &RemoteError{ID: id, Message: msg}
	}
	payload, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("malformed relay response %q: %w", line, err)
	}
	return payload, nil
}
