// Package link owns the logical connection to the boiler.
//
// A Link wraps one Transport (normally the serial port opened by Open) and
// performs a complete exchange per call:
//
//	l, err := link.Open(link.DefaultConfig("/dev/ttyUSB0"))
//	if err != nil {
//	    return err // ConnectionInitializationError
//	}
//	defer l.Close()
//
//	payload, err := l.Execute(0x51, nil)
//
// Every Execute first discards stale input, then writes the request frame,
// reads the 4-byte header and the body, each bounded by the read timeout.
// Failures are *protocol.Error values and are never retried.
//
// Link is not safe for concurrent use. Callers must ensure a single
// exchange is in flight at a time.
package link
