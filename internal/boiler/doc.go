// Package boiler knows what a few commands mean: reading the state display
// and reading temperatures by address. The relay itself never needs this;
// the CLI uses it for one-shot queries and the watch dashboard.
package boiler
