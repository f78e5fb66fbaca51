package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Relay represents a relay found on the network
type Relay struct {
	// Instance is the advertised instance name (usually the host name)
	Instance string

	// Hostname is the mDNS hostname (e.g., "boilerpi.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the relay's TCP port
	Port int

	// TTY is the serial device the relay is attached to, from the TXT record
	TTY string

	// Version is the relay's build version, from the TXT record
	Version string

	// Metadata contains all TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the relay was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the relay
func (r *Relay) String() string {
	return fmt.Sprintf("Fröling relay %s (%s) at %s", r.Instance, r.Hostname, r.Address())
}

// Address returns host:port for dialing the relay
func (r *Relay) Address() string {
	return net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
}
