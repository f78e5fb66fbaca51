package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Kind represents the category of a boiler communication failure
type Kind int

const (
	// KindConnectionInit indicates the serial port could not be opened (startup only)
	KindConnectionInit Kind = iota + 1
	// KindTransportIO indicates a write to or read from the serial port failed
	KindTransportIO
	// KindNoResponse indicates no header byte arrived within the read timeout
	KindNoResponse
	// KindWrongResponseHeader indicates a short header or wrong magic bytes
	KindWrongResponseHeader
	// KindIncompleteResponse indicates fewer body bytes than declared arrived
	KindIncompleteResponse
	// KindWrongChecksum indicates the trailing checksum did not match
	KindWrongChecksum
	// KindWrongCommandEcho indicates the response echoed a different command
	KindWrongCommandEcho
)

// String returns the short identifier used in relay error lines
func (k Kind) String() string {
	switch k {
	case KindConnectionInit:
		return "ConnectionInitializationError"
	case KindTransportIO:
		return "TransportIOError"
	case KindNoResponse:
		return "NoResponse"
	case KindWrongResponseHeader:
		return "WrongResponseHeader"
	case KindIncompleteResponse:
		return "IncompleteResponse"
	case KindWrongChecksum:
		return "WrongChecksum"
	case KindWrongCommandEcho:
		return "WrongCommandEcho"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsResponseRead reports whether the kind belongs to the response-read family,
// i.e. the link worked but what came back was unusable.
func (k Kind) IsResponseRead() bool {
	switch k {
	case KindNoResponse, KindWrongResponseHeader, KindIncompleteResponse,
		KindWrongChecksum, KindWrongCommandEcho:
		return true
	}
	return false
}

// IsResponseReadError reports whether err carries a response-read kind
func IsResponseReadError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind.IsResponseRead()
}

// Error is a failed exchange with the boiler. Which diagnostic fields are
// set depends on Kind:
//   - KindWrongResponseHeader: Raw holds the header bytes received
//   - KindIncompleteResponse: Expected/Actual are byte counts after the header
//   - KindWrongChecksum: Expected is the computed checksum, Actual the received one
//   - KindWrongCommandEcho: Expected is the sent command, Actual the echoed one
//   - KindTransportIO, KindConnectionInit: Err is the underlying cause
type Error struct {
	Kind     Kind
	Raw      []byte
	Expected int
	Actual   int
	Err      error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrConnectionInit      = &Error{Kind: KindConnectionInit}
	ErrTransportIO         = &Error{Kind: KindTransportIO}
	ErrNoResponse          = &Error{Kind: KindNoResponse}
	ErrWrongResponseHeader = &Error{Kind: KindWrongResponseHeader}
	ErrIncompleteResponse  = &Error{Kind: KindIncompleteResponse}
	ErrWrongChecksum       = &Error{Kind: KindWrongChecksum}
	ErrWrongCommandEcho    = &Error{Kind: KindWrongCommandEcho}
)

// NewTransportError wraps a serial read/write failure
func NewTransportError(err error) *Error {
	return &Error{Kind: KindTransportIO, Err: err}
}

// NewConnectionInitError wraps a failure to open the serial port
func NewConnectionInitError(err error) *Error {
	return &Error{Kind: KindConnectionInit, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Detail()
}

// Detail returns the human-readable part of the error without the kind
func (e *Error) Detail() string {
	switch e.Kind {
	case KindConnectionInit:
		return fmt.Sprintf("cannot open serial port: %v", e.Err)
	case KindTransportIO:
		return fmt.Sprintf("serial port I/O failed: %v", e.Err)
	case KindNoResponse:
		return "no response from boiler"
	case KindWrongResponseHeader:
		return "received: " + hex.EncodeToString(e.Raw)
	case KindIncompleteResponse:
		return fmt.Sprintf("expected %d bytes after frame header, received %d", e.Expected, e.Actual)
	case KindWrongChecksum:
		return fmt.Sprintf("expected checksum %02X, received %02X", e.Expected, e.Actual)
	case KindWrongCommandEcho:
		return fmt.Sprintf("expected command %02X, received %02X", e.Expected, e.Actual)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
