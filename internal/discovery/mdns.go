package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/froeling/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type relays advertise
	ServiceType = "_froeling._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for relay discovery
	DefaultScanTimeout = 5 * time.Second
)

// Scanner handles mDNS relay discovery
type Scanner struct {
	// Timeout is the maximum time to wait for relays to answer
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers relays on the local network until the timeout elapses or
// ctx is cancelled
func (s *Scanner) Scan(ctx context.Context) ([]*Relay, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu     sync.Mutex
		relays []*Relay
		seen   = make(map[string]bool)
		wg     sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			relay := parseServiceEntry(entry)
			if relay == nil || seen[relay.Address()] {
				continue
			}
			seen[relay.Address()] = true
			mu.Lock()
			relays = append(relays, relay)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context is done
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return relays, nil
}

// parseServiceEntry converts a zeroconf service entry to a Relay.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Relay {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Relay{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		TTY:          metadata["tty"],
		Version:      metadata["version"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Advertiser announces a running relay on the local network
type Advertiser struct {
	server *zeroconf.Server
}

// AdvertiseOptions describes what to announce
type AdvertiseOptions struct {
	Instance string // Defaults to the host name
	Port     int
	TTY      string
	Version  string
}

// Advertise registers the relay with mDNS until Shutdown is called
func Advertise(opts AdvertiseOptions) (*Advertiser, error) {
	instance := opts.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("cannot determine instance name: %w", err)
		}
		instance = host
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, opts.Port, txtRecords(opts), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising relay via mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", opts.Port),
	)
	return &Advertiser{server: server}, nil
}

func txtRecords(opts AdvertiseOptions) []string {
	var txt []string
	if opts.TTY != "" {
		txt = append(txt, "tty="+opts.TTY)
	}
	if opts.Version != "" {
		txt = append(txt, "version="+opts.Version)
	}
	return txt
}

// Shutdown withdraws the advertisement
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("mDNS advertisement withdrawn")
}

// PortOf extracts the port from a listen address such as ":8023"
func PortOf(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
