// Package config provides the relay's configuration file.
//
// The configuration is a YAML file describing the serial port, the TCP relay,
// the optional HTTP listener, mDNS advertisement and logging. Every field has
// a default, so a missing file or a partial one is valid.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/froeling/config.yaml or $HOME/.config/froeling/config.yaml
//   - macOS: $HOME/.config/froeling/config.yaml
//   - Windows: %LOCALAPPDATA%\froeling\config.yaml
//
// # Example
//
//	version: 1
//	serial:
//	  tty: /dev/ttyUSB0
//	  baud: 57600
//	  read_timeout: 1s
//	  ignore_checksum: true
//	relay:
//	  listen: ":8023"
//	  max_line_length: 4096
//	http:
//	  listen: ":8080"
//	mdns:
//	  enabled: true
//	logging:
//	  level: info
//	  file: /var/log/froeling/relay.log
//
// # Thread Safety
//
// Save is serialized by a package mutex and writes atomically through a
// temporary file.
package config
