package boiler

import (
	"encoding/binary"
	"fmt"
)

// valueSize is the width of every value in a CmdCurrentValues response
const valueSize = 2

// Value describes one readable measurement
type Value struct {
	Label         string
	Address       uint16
	MultipliedBy2 bool // raw value is twice the temperature
}

// DefaultCatalog lists the temperatures every controller exposes
var DefaultCatalog = []Value{
	{Label: "Boiler temperature (Kesseltemperatur)", Address: 0x0000, MultipliedBy2: true},
	{Label: "Exhaust temperature (Abgastemperatur)", Address: 0x0001, MultipliedBy2: true},
	{Label: "External temperature (Außentemperatur)", Address: 0x0004, MultipliedBy2: true},
	{Label: "Buffer top temperature (Puffer 1 oben)", Address: 0x0076, MultipliedBy2: true},
	{Label: "Buffer bottom temperature (Puffer 1 unten)", Address: 0x0078, MultipliedBy2: true},
	{Label: "Hot water storage temperature (Boilertemperatur 1)", Address: 0x005d, MultipliedBy2: true},
}

// Reading is a catalog value paired with what the boiler returned for it
type Reading struct {
	Value
	Raw  []byte
	Text string
}

// Values is a decoded CmdCurrentValues response
type Values struct {
	Raw      []byte
	Readings []Reading
}

// Addresses concatenates the big-endian addresses of values, the parameter
// layout CmdCurrentValues expects
func Addresses(values []Value) []byte {
	out := make([]byte, 0, len(values)*valueSize)
	for _, v := range values {
		out = binary.BigEndian.AppendUint16(out, v.Address)
	}
	return out
}

// ReadValues requests all values in one command. Readings are paired with
// the catalog in order; a short response yields fewer readings.
func ReadValues(ex Executor, values []Value) (*Values, error) {
	payload, err := ex.Execute(CmdCurrentValues, Addresses(values))
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return &Values{Raw: payload, Readings: pairReadings(values, payload)}, nil
}

func pairReadings(values []Value, payload []byte) []Reading {
	readings := make([]Reading, 0, len(values))
	for i, v := range values {
		start := i * valueSize
		if start+valueSize > len(payload) {
			break
		}
		raw := payload[start : start+valueSize]
		readings = append(readings, Reading{
			Value: v,
			Raw:   raw,
			Text:  FormatTemperature(raw, v.MultipliedBy2),
		})
	}
	return readings
}

// FormatTemperature renders a signed big-endian integer as degrees Celsius
// with one decimal, halving it first when multipliedBy2 is set
func FormatTemperature(b []byte, multipliedBy2 bool) string {
	divisor := 1.0
	if multipliedBy2 {
		divisor = 2.0
	}
	return fmt.Sprintf("%.1f°C", float64(signedBigEndian(b))/divisor)
}

// signedBigEndian decodes up to 8 bytes as a two's complement integer
func signedBigEndian(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	if len(b) > 8 {
		b = b[len(b)-8:]
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}
