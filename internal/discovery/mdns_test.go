package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "relay with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "boilerpi"},
				HostName:      "boilerpi.local.",
				Port:          8023,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantIP:   "192.168.1.20",
			wantPort: 8023,
		},
		{
			name: "IPv6 only relay",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "cellar"},
				Port:          8023,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 8023,
		},
		{
			name: "both families prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "cellar"},
				Port:          9000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "boilerpi"},
				Port:          8023,
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "boilerpi"},
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantNil: true,
		},
		{
			name: "no instance",
			entry: &zeroconf.ServiceEntry{
				Port:     8023,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if relay != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", relay)
				}
				return
			}
			if relay == nil {
				t.Fatal("parseServiceEntry() = nil, want relay")
			}
			if relay.IP != tt.wantIP {
				t.Errorf("relay.IP = %v, want %v", relay.IP, tt.wantIP)
			}
			if relay.Port != tt.wantPort {
				t.Errorf("relay.Port = %v, want %v", relay.Port, tt.wantPort)
			}
			if time.Since(relay.DiscoveredAt) > time.Second {
				t.Errorf("relay.DiscoveredAt is not recent: %v", relay.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "boilerpi"},
		Port:          8023,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          []string{"tty=/dev/ttyUSB0", "version=v1.2.0", "flag"},
	}

	relay := parseServiceEntry(entry)
	if relay == nil {
		t.Fatal("parseServiceEntry() = nil, want relay")
	}
	if relay.TTY != "/dev/ttyUSB0" {
		t.Errorf("relay.TTY = %q", relay.TTY)
	}
	if relay.Version != "v1.2.0" {
		t.Errorf("relay.Version = %q", relay.Version)
	}
	if v, ok := relay.Metadata["flag"]; !ok || v != "" {
		t.Errorf("relay.Metadata[flag] = %q, %v; want empty and present", v, ok)
	}
}

func TestRelay_Address(t *testing.T) {
	tests := []struct {
		relay Relay
		want  string
	}{
		{Relay{IP: "192.168.1.20", Port: 8023}, "192.168.1.20:8023"},
		{Relay{IP: "fe80::1", Port: 8023}, "[fe80::1]:8023"},
	}
	for _, tt := range tests {
		if got := tt.relay.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestTxtRecords(t *testing.T) {
	got := txtRecords(AdvertiseOptions{TTY: "/dev/ttyUSB0", Version: "dev"})
	if len(got) != 2 || got[0] != "tty=/dev/ttyUSB0" || got[1] != "version=dev" {
		t.Errorf("txtRecords() = %v", got)
	}
	if got := txtRecords(AdvertiseOptions{}); len(got) != 0 {
		t.Errorf("txtRecords(empty) = %v, want none", got)
	}
}

func TestPortOf(t *testing.T) {
	if got := PortOf(&net.TCPAddr{IP: net.IPv4zero, Port: 8023}); got != 8023 {
		t.Errorf("PortOf() = %d, want 8023", got)
	}
	if got := PortOf(&net.UnixAddr{Name: "/tmp/s"}); got != 0 {
		t.Errorf("PortOf(unix) = %d, want 0", got)
	}
}

func TestAdvertiser_NilShutdown(t *testing.T) {
	var a *Advertiser
	a.Shutdown()
}
