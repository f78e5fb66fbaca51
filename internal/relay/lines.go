package relay

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// HexDecodeError is the identifier sent for lines that are not valid hex
const HexDecodeError = "HexDecodeError"

// allowedByte reports whether b may appear in the client stream at all.
// Anything else is treated as abuse and the connection is dropped.
func allowedByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
	case b >= 'a' && b <= 'f':
	case b >= 'A' && b <= 'F':
	case b == '\r' || b == '\n':
	default:
		return false
	}
	return true
}

// validStream returns the index of the first disallowed byte, or -1
func validStream(data []byte) int {
	for i, b := range data {
		if !allowedByte(b) {
			return i
		}
	}
	return -1
}

// nextLine splits off the text before the first CR or LF. Exactly one
// delimiter byte is consumed, so CRLF leaves an empty line behind.
func nextLine(buf []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexAny(buf, "\r\n")
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i], buf[i+1:], true
}

// decodeLine turns a hex line into command bytes
func decodeLine(line []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(line)))
	n, err := hex.Decode(out, line)
	if err != nil {
		if errors.Is(err, hex.ErrLength) {
			return nil, errors.New("odd number of hex digits")
		}
		return nil, err
	}
	return out[:n], nil
}

// responseLine encodes a payload as a lowercase hex line
func responseLine(payload []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(payload))+1)
	hex.Encode(out, payload)
	out[len(out)-1] = '\n'
	return out
}

// errorLine formats "!<id>: <detail>\n"
func errorLine(id, detail string) []byte {
	return []byte("!" + id + ": " + detail + "\n")
}
