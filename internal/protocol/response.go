package protocol

import "encoding/binary"

// BodyReader reads up to n bytes of a response body. Returning fewer than n
// bytes without an error means the read timed out.
type BodyReader func(n int) ([]byte, error)

// ParseHeader validates a response header and returns the declared length.
//
// An empty header means the boiler never answered. A short header or one
// that does not start with the magic bytes is rejected with the raw bytes
// attached for diagnostics.
func ParseHeader(header []byte) (int, error) {
	if len(header) == 0 {
		return 0, &Error{Kind: KindNoResponse}
	}
	if len(header) < HeaderSize || header[0] != Magic[0] || header[1] != Magic[1] {
		return 0, &Error{Kind: KindWrongResponseHeader, Raw: cloneBytes(header)}
	}
	return int(binary.BigEndian.Uint16(header[2:HeaderSize])), nil
}

// ReadResponse validates a response and returns its payload.
//
// The body is declared+1 bytes: the echoed command, the payload and the
// checksum. The declared length does not count the checksum byte, while the
// request length does count the command byte; both are what the boiler does.
//
// With ignoreChecksum set a checksum mismatch is accepted silently. Some
// firmware revisions compute it wrongly for certain responses.
func ReadResponse(header []byte, body BodyReader, command byte, ignoreChecksum bool) ([]byte, error) {
	declared, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	want := declared + ChecksumSize
	data, err := body(want)
	if err != nil {
		return nil, NewTransportError(err)
	}
	if len(data) < want {
		return nil, &Error{Kind: KindIncompleteResponse, Expected: want, Actual: len(data)}
	}
	data = data[:want]

	received := data[len(data)-1]
	expected := checksumUpdate(checksumUpdate(0, header[:HeaderSize]), data[:len(data)-1])
	if expected != received && !ignoreChecksum {
		return nil, &Error{Kind: KindWrongChecksum, Expected: int(expected), Actual: int(received)}
	}

	if data[0] != command {
		return nil, &Error{Kind: KindWrongCommandEcho, Expected: int(command), Actual: int(data[0])}
	}

	// A zero declared length leaves only the checksum byte.
	if len(data) < 2 {
		return []byte{}, nil
	}
	return cloneBytes(data[1 : len(data)-1]), nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
