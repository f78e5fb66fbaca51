// Package discovery finds Fröling relays on the local network and announces
// running ones, using multicast DNS.
//
// A relay registers the "_froeling._tcp" service with its TCP port and TXT
// records naming the serial device and build version:
//
//	adv, err := discovery.Advertise(discovery.AdvertiseOptions{
//	    Port: 8023,
//	    TTY:  "/dev/ttyUSB0",
//	})
//	defer adv.Shutdown()
//
// Clients browse for it:
//
//	relays, err := discovery.NewScanner().Scan(ctx)
//	for _, r := range relays {
//	    fmt.Println(r.Address())
//	}
//
// # Network Requirements
//
// mDNS uses UDP port 5353 on the multicast group 224.0.0.251 (and ff02::fb
// for IPv6). Both ends must be on the same link, or the network must
// forward multicast.
package discovery
