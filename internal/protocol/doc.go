// Package protocol implements the Fröling boiler serial frame format.
//
// This package builds request frames, computes the frame checksum, and
// validates response frames read from the serial link. It is pure: nothing
// here touches a port, so every function is safe for concurrent use.
//
// # Frame Format
//
// Requests and responses share one envelope:
//   - Block start: 0x02 0xFD
//   - Length: 2 bytes (big-endian)
//   - Message: command byte followed by parameters (request) or payload (response)
//   - Checksum: 1 byte over everything before it
//
// The length field of a request counts the command byte and parameters. The
// length field of a response counts the echoed command and the payload but
// not the checksum, so a response body is always declared+1 bytes long.
//
// # Checksum
//
// The checksum is not a CRC. Starting from zero, every byte b is folded in as:
//
//	acc = acc ^ b ^ ((b << 1) & 0xFF)
//
// # Usage Example
//
//	frame := protocol.BuildRequest(0x51, nil) // 02 fd 00 01 51 f1
//	if _, err := port.Write(frame); err != nil {
//	    return protocol.NewTransportError(err)
//	}
//
//	header := readUpTo(4)
//	payload, err := protocol.ReadResponse(header, readUpTo, 0x51, true)
//
// # Error Handling
//
// Every failure is an *Error carrying a Kind:
//   - Transport errors: the serial port failed while writing or reading
//   - Response-read errors: no response, wrong header, incomplete body,
//     wrong checksum, or a different command echoed back
//
// Kinds compare with errors.Is against the Err* sentinels. Kind.String()
// returns the short identifier the relay reports to its clients.
package protocol
