// Package server runs the Fröling relay as a long-lived process.
//
// A Server opens the serial link to the boiler and hands it to a relay.Relay
// listening on TCP. When configured it also serves HTTP:
//
//	/ws       WebSocket clients, same line protocol as TCP
//	/metrics  Prometheus exposition
//	/healthz  liveness probe
//
// and advertises the relay over mDNS as _froeling._tcp so that
// "froeling discover" can find it.
//
// Start blocks until SIGINT or SIGTERM. Run takes a context instead, which
// is what tests use.
package server
