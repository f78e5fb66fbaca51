package link

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial device the boiler could be attached to
type PortInfo struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Description summarises the USB identity of the port, or "" for non-USB ports
func (p PortInfo) Description() string {
	if !p.USB {
		return ""
	}
	s := fmt.Sprintf("USB %s:%s", p.VID, p.PID)
	if p.Product != "" {
		s += " " + p.Product
	}
	if p.SerialNumber != "" {
		s += " (" + p.SerialNumber + ")"
	}
	return s
}

// lister is swapped in tests
var lister = enumerator.GetDetailedPortsList

// ListPorts enumerates serial devices, sorted by name
func ListPorts() ([]PortInfo, error) {
	details, err := lister()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return portInfos(details), nil
}

func portInfos(details []*enumerator.PortDetails) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		ports = append(ports, PortInfo{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports
}
