package link

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/muurk/froeling/internal/protocol"
)

// mockTTY replays a canned boiler response and records what was written
type mockTTY struct {
	response []byte
	written  []byte
	resets   int

	writeErr error
	resetErr error
	readErr  error
	shortBy  int
	closed   bool
}

func (m *mockTTY) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.written = append(m.written, p...)
	return len(p) - m.shortBy, nil
}

func (m *mockTTY) Read(n int, _ time.Duration) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if n > len(m.response) {
		n = len(m.response)
	}
	out := m.response[:n]
	m.response = m.response[n:]
	return out, nil
}

func (m *mockTTY) ResetInputBuffer() error {
	m.resets++
	return m.resetErr
}

func (m *mockTTY) Close() error {
	m.closed = true
	return nil
}

var stateRequest = []byte{0x02, 0xfd, 0x00, 0x01, 0x51, 0xf1}

func TestExecute_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		response []byte
		enforce  bool
		want     []byte
		wantErr  error
	}{
		{
			name:     "payload with wrong checksum ignored by default",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03},
			want:     []byte{0x01, 0x02},
		},
		{
			name:     "empty payload",
			response: []byte{0x02, 0xfd, 0x00, 0x01, 0x51, 0x03},
			want:     []byte{},
		},
		{
			name:     "wrong checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03},
			enforce:  true,
			wantErr:  protocol.ErrWrongChecksum,
		},
		{
			name:     "correct checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0xf2},
			enforce:  true,
			want:     []byte{0x01, 0x02},
		},
		{
			name:    "silent boiler",
			wantErr: protocol.ErrNoResponse,
		},
		{
			name:     "truncated header",
			response: []byte{0x02, 0xfd},
			wantErr:  protocol.ErrWrongResponseHeader,
		},
		{
			name:     "truncated body",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51},
			wantErr:  protocol.ErrIncompleteResponse,
		},
		{
			name:     "other command echoed",
			response: []byte{0x02, 0xfd, 0x00, 0x01, 0x30, 0x03},
			wantErr:  protocol.ErrWrongCommandEcho,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tty := &mockTTY{response: tt.response}
			l := New(tty, WithIgnoreChecksum(!tt.enforce))

			got, err := l.Execute(0x51, nil)

			if !bytes.Equal(tty.written, stateRequest) {
				t.Errorf("written = % x, want % x", tty.written, stateRequest)
			}
			if tty.resets != 1 {
				t.Errorf("input buffer reset %d times, want 1", tty.resets)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Execute() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestExecute_Parameters(t *testing.T) {
	tty := &mockTTY{response: []byte{0x02, 0xfd, 0x00, 0x03, 0x30, 0x00, 0x91, 0x00}}
	l := New(tty)

	got, err := l.Execute(0x30, []byte{0x00, 0x00})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0x91}) {
		t.Errorf("Execute() = % x, want 00 91", got)
	}

	want := protocol.BuildRequest(0x30, []byte{0x00, 0x00})
	if !bytes.Equal(tty.written, want) {
		t.Errorf("written = % x, want % x", tty.written, want)
	}
}

func TestExecute_TransportFailures(t *testing.T) {
	cause := errors.New("device unplugged")

	tests := []struct {
		name string
		tty  *mockTTY
	}{
		{"write fails", &mockTTY{writeErr: cause}},
		{"reset fails", &mockTTY{resetErr: cause}},
		{"read fails", &mockTTY{readErr: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tty).Execute(0x51, nil)
			if !errors.Is(err, protocol.ErrTransportIO) {
				t.Fatalf("Execute() error = %v, want TransportIOError", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("Execute() error = %v, want it to wrap the cause", err)
			}
		})
	}
}

func TestExecute_ShortWrite(t *testing.T) {
	_, err := New(&mockTTY{shortBy: 1}).Execute(0x51, nil)
	if !errors.Is(err, protocol.ErrTransportIO) || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("Execute() error = %v, want short write transport error", err)
	}
}

func TestExecute_MessageTooLong(t *testing.T) {
	tty := &mockTTY{}
	_, err := New(tty).Execute(0x51, make([]byte, protocol.MaxMessageSize))
	if !errors.Is(err, protocol.ErrMessageTooLong) {
		t.Fatalf("Execute() error = %v, want ErrMessageTooLong", err)
	}
	if len(tty.written) != 0 || tty.resets != 0 {
		t.Error("oversized message should not touch the transport")
	}
}

func TestLink_Close(t *testing.T) {
	tty := &mockTTY{}
	if err := New(tty).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !tty.closed {
		t.Error("Close() should close the transport")
	}
}

func TestWithReadTimeout_IgnoresNonPositive(t *testing.T) {
	l := New(&mockTTY{}, WithReadTimeout(0))
	if l.readTimeout != DefaultReadTimeout {
		t.Errorf("readTimeout = %v, want %v", l.readTimeout, DefaultReadTimeout)
	}
	if !l.IgnoresChecksum() {
		t.Error("checksum should be ignored by default")
	}
}
