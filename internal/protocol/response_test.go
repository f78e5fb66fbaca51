package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// bodyFrom serves the bytes after the 4-byte header the way a timed-out
// serial read would: at most n bytes, fewer if the stream runs dry.
func bodyFrom(response []byte) BodyReader {
	rest := []byte{}
	if len(response) > HeaderSize {
		rest = response[HeaderSize:]
	}
	return func(n int) ([]byte, error) {
		if n > len(rest) {
			n = len(rest)
		}
		out := rest[:n]
		rest = rest[n:]
		return out, nil
	}
}

func headerOf(response []byte) []byte {
	if len(response) > HeaderSize {
		return response[:HeaderSize]
	}
	return response
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name           string
		response       []byte
		command        byte
		ignoreChecksum bool
		want           []byte
		wantKind       Kind
	}{
		{
			name:           "payload with wrong checksum ignored",
			response:       []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03},
			command:        0x51,
			ignoreChecksum: true,
			want:           []byte{0x01, 0x02},
		},
		{
			name:           "empty payload",
			response:       []byte{0x02, 0xfd, 0x00, 0x01, 0x51, 0x03},
			command:        0x51,
			ignoreChecksum: true,
			want:           []byte{},
		},
		{
			name:     "payload with correct checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0xf2},
			command:  0x51,
			want:     []byte{0x01, 0x02},
		},
		{
			name:     "empty payload with correct checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x01, 0x51, 0xf1},
			command:  0x51,
			want:     []byte{},
		},
		{
			name:     "payload with wrong checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03},
			command:  0x51,
			wantKind: KindWrongChecksum,
		},
		{
			name:     "empty payload with wrong checksum enforced",
			response: []byte{0x02, 0xfd, 0x00, 0x01, 0x51, 0x03},
			command:  0x51,
			wantKind: KindWrongChecksum,
		},
		{
			name:           "declared length zero",
			response:       []byte{0x02, 0xfd, 0x00, 0x00, 0x51},
			command:        0x51,
			ignoreChecksum: true,
			want:           []byte{},
		},
		{
			name:           "wrong command echo",
			response:       []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03},
			command:        0x52,
			ignoreChecksum: true,
			wantKind:       KindWrongCommandEcho,
		},
		{
			name:           "too short body",
			response:       []byte{0x02, 0xfd, 0x00, 0x05, 0x51, 0x01, 0x02, 0x03},
			command:        0x51,
			ignoreChecksum: true,
			wantKind:       KindIncompleteResponse,
		},
		{
			name:           "three header bytes",
			response:       []byte{0x02, 0xfd, 0x00},
			command:        0x52,
			ignoreChecksum: true,
			wantKind:       KindWrongResponseHeader,
		},
		{
			name:           "wrong magic",
			response:       []byte{0x03, 0xfd, 0x00, 0x05, 0x51, 0x01, 0x02, 0x03},
			command:        0x52,
			ignoreChecksum: true,
			wantKind:       KindWrongResponseHeader,
		},
		{
			name:           "no response",
			response:       []byte{},
			command:        0x52,
			ignoreChecksum: true,
			wantKind:       KindNoResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResponse(headerOf(tt.response), bodyFrom(tt.response), tt.command, tt.ignoreChecksum)

			if tt.wantKind != 0 {
				var perr *Error
				if !errors.As(err, &perr) {
					t.Fatalf("ReadResponse() error = %v, want *Error of kind %s", err, tt.wantKind)
				}
				if perr.Kind != tt.wantKind {
					t.Fatalf("ReadResponse() kind = %s, want %s", perr.Kind, tt.wantKind)
				}
				if !perr.Kind.IsResponseRead() {
					t.Errorf("kind %s should belong to the response-read family", perr.Kind)
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadResponse() unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ReadResponse() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestReadResponse_Diagnostics(t *testing.T) {
	t.Run("wrong checksum carries computed and received", func(t *testing.T) {
		resp := []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03}
		_, err := ReadResponse(headerOf(resp), bodyFrom(resp), 0x51, false)

		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if perr.Expected != 0xf2 || perr.Actual != 0x03 {
			t.Errorf("expected/actual = %02X/%02X, want F2/03", perr.Expected, perr.Actual)
		}
		if perr.Detail() != "expected checksum F2, received 03" {
			t.Errorf("Detail() = %q", perr.Detail())
		}
	})

	t.Run("incomplete carries declared plus one and received", func(t *testing.T) {
		resp := []byte{0x02, 0xfd, 0x00, 0x05, 0x51, 0x01, 0x02, 0x03}
		_, err := ReadResponse(headerOf(resp), bodyFrom(resp), 0x51, true)

		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if perr.Expected != 6 || perr.Actual != 4 {
			t.Errorf("expected/actual = %d/%d, want 6/4", perr.Expected, perr.Actual)
		}
	})

	t.Run("wrong header carries raw bytes", func(t *testing.T) {
		resp := []byte{0x02, 0xfd, 0x00}
		_, err := ReadResponse(resp, bodyFrom(resp), 0x51, true)

		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if !bytes.Equal(perr.Raw, resp) {
			t.Errorf("Raw = % x, want % x", perr.Raw, resp)
		}
		if perr.Error() != "WrongResponseHeader: received: 02fd00" {
			t.Errorf("Error() = %q", perr.Error())
		}
	})

	t.Run("echo mismatch carries both commands", func(t *testing.T) {
		resp := []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03}
		_, err := ReadResponse(headerOf(resp), bodyFrom(resp), 0x52, true)

		if !errors.Is(err, ErrWrongCommandEcho) {
			t.Fatalf("error = %v, want ErrWrongCommandEcho", err)
		}
		var perr *Error
		errors.As(err, &perr)
		if perr.Expected != 0x52 || perr.Actual != 0x51 {
			t.Errorf("expected/actual = %02X/%02X, want 52/51", perr.Expected, perr.Actual)
		}
	})
}

func TestReadResponse_ChecksumCheckedBeforeEcho(t *testing.T) {
	// Both the checksum and the echo are wrong; the checksum is reported.
	resp := []byte{0x02, 0xfd, 0x00, 0x03, 0x51, 0x01, 0x02, 0x03}
	_, err := ReadResponse(headerOf(resp), bodyFrom(resp), 0x52, false)
	if !errors.Is(err, ErrWrongChecksum) {
		t.Fatalf("error = %v, want ErrWrongChecksum", err)
	}
}

func TestReadResponse_BodyReadFailure(t *testing.T) {
	header := []byte{0x02, 0xfd, 0x00, 0x03}
	failing := func(n int) ([]byte, error) { return nil, io.ErrUnexpectedEOF }

	_, err := ReadResponse(header, failing, 0x51, true)
	if !errors.Is(err, ErrTransportIO) {
		t.Fatalf("error = %v, want ErrTransportIO", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, should wrap the underlying cause", err)
	}
}

func TestReadResponse_ExtraBytesIgnored(t *testing.T) {
	header := []byte{0x02, 0xfd, 0x00, 0x01}
	greedy := func(n int) ([]byte, error) { return []byte{0x51, 0xf1, 0xaa, 0xbb}, nil }

	got, err := ReadResponse(header, greedy, 0x51, false)
	if err != nil {
		t.Fatalf("ReadResponse() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadResponse() = % x, want empty", got)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []byte
		want     int
		wantKind Kind
	}{
		{name: "declared 3", header: []byte{0x02, 0xfd, 0x00, 0x03}, want: 3},
		{name: "declared 258", header: []byte{0x02, 0xfd, 0x01, 0x02}, want: 258},
		{name: "empty", header: nil, wantKind: KindNoResponse},
		{name: "one byte", header: []byte{0x02}, wantKind: KindWrongResponseHeader},
		{name: "swapped magic", header: []byte{0xfd, 0x02, 0x00, 0x03}, wantKind: KindWrongResponseHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.header)
			if tt.wantKind != 0 {
				var perr *Error
				if !errors.As(err, &perr) || perr.Kind != tt.wantKind {
					t.Fatalf("ParseHeader() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseHeader() = %d, want %d", got, tt.want)
			}
		})
	}
}
