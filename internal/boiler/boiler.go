package boiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Command bytes understood by the boiler controller
const (
	// CmdCurrentValues reads the values at the 2-byte addresses given as parameters
	CmdCurrentValues byte = 0x30
	// CmdBoilerState reads the state display text
	CmdBoilerState byte = 0x51
)

// stateSkip is the number of leading bytes of a state payload that are not text
const stateSkip = 2

// Executor runs one command against the boiler. *link.Link implements it.
type Executor interface {
	Execute(command byte, parameters []byte) ([]byte, error)
}

// State is a decoded boiler state response
type State struct {
	Raw   []byte   // payload as received
	Lines []string // display lines
}

// ReadState asks the boiler for its current state
func ReadState(ex Executor) (*State, error) {
	payload, err := ex.Execute(CmdBoilerState, nil)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	lines, err := DecodeState(payload)
	if err != nil {
		return nil, err
	}
	return &State{Raw: payload, Lines: lines}, nil
}

// DecodeState turns a state payload into display lines. The first two bytes
// are status flags; the rest is ISO-8859-1 text separated by semicolons.
func DecodeState(payload []byte) ([]string, error) {
	var text []byte
	if len(payload) > stateSkip {
		text = payload[stateSkip:]
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("decode state text: %w", err)
	}
	return strings.Split(string(decoded), ";"), nil
}
