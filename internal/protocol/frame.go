package protocol

import (
	"encoding/binary"
	"errors"
)

// Frame layout constants
const (
	// HeaderSize is MAGIC (2 bytes) + LENGTH (2 bytes, big-endian)
	HeaderSize = 4
	// ChecksumSize is the trailing checksum byte
	ChecksumSize = 1
	// MaxMessageSize is the largest COMMAND+PARAMETERS the length field can express
	MaxMessageSize = 0xFFFF
)

// Magic is the block start of every request and response frame.
var Magic = [2]byte{0x02, 0xFD}

// ErrMessageTooLong is returned when a command and its parameters do not fit
// the 16-bit length field.
var ErrMessageTooLong = errors.New("message exceeds 65535 bytes")

// BuildRequest builds a request frame:
//
//	[0x02][0xFD][LEN_H][LEN_L][COMMAND][PARAMETERS...][CHECKSUM]
//
// LEN counts COMMAND plus PARAMETERS. The checksum covers every byte before it.
func BuildRequest(command byte, parameters []byte) []byte {
	msgLen := 1 + len(parameters)

	frame := make([]byte, 0, HeaderSize+msgLen+ChecksumSize)
	frame = append(frame, Magic[0], Magic[1])
	frame = binary.BigEndian.AppendUint16(frame, uint16(msgLen))
	frame = append(frame, command)
	frame = append(frame, parameters...)

	return append(frame, Checksum(frame))
}

// Checksum computes the boiler's single-byte frame checksum.
//
// For every byte b the accumulator becomes acc ^ b ^ ((b << 1) & 0xFF).
// This is not a CRC; the device rejects anything but this exact function.
func Checksum(data []byte) byte {
	return checksumUpdate(0, data)
}

// checksumUpdate continues a checksum over more data. The byte type keeps
// every intermediate value masked to 8 bits.
func checksumUpdate(acc byte, data []byte) byte {
	for _, b := range data {
		acc = acc ^ b ^ (b << 1)
	}
	return acc
}
